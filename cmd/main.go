package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Leganyst/rollcall/internal/auth"
	"github.com/Leganyst/rollcall/internal/config"
	"github.com/Leganyst/rollcall/internal/db"
	"github.com/Leganyst/rollcall/internal/grpcserver"
	"github.com/Leganyst/rollcall/internal/httpapi"
	"github.com/Leganyst/rollcall/internal/logging"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
	"github.com/Leganyst/rollcall/internal/service"
	"github.com/Leganyst/rollcall/internal/storage"
)

func main() {
	// 0. .env опционален, переменные окружения имеют приоритет.
	_ = godotenv.Load()

	// 1. Загружаем конфиг из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}
	logger := logging.New(os.Stdout, appCfg.LogLevel)

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Хранилище и метрики.
	store := repository.NewStore(gormDB)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	// 5. Сервисы.
	opts := []service.Option{service.WithLogger(logger), service.WithMetrics(metrics)}
	tokens := auth.NewIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTAudience, appCfg.TokenTTL)
	images := storage.NewLocalStore(appCfg.MediaRoot, appCfg.MaxImageMB)

	identitySvc := service.NewIdentityService(store, tokens, opts...)
	rosterSvc := service.NewRosterService(store, opts...)
	swapSvc := service.NewSwapService(store, rosterSvc, opts...)
	attendanceSvc := service.NewAttendanceService(store, images, opts...)

	// 6. HTTP API.
	api := httpapi.NewServer(httpapi.Deps{
		Identity:       identitySvc,
		Rosters:        rosterSvc,
		Swaps:          swapSvc,
		Attendance:     attendanceSvc,
		Tokens:         tokens,
		Logger:         logger,
		Gatherer:       registry,
		Ping:           sqlDB.PingContext,
		MaxUploadBytes: int64(appCfg.MaxImageMB) * 1024 * 1024,
	})
	httpServer := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Служебный gRPC: health + reflection.
	grpcSrv := grpcserver.New(logger, sqlDB.PingContext)
	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", appCfg.GRPCAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go grpcSrv.Monitor(ctx, 15*time.Second)

	// 8. Запускаем серверы в горутинах.
	go func() {
		logger.Info("gRPC server listening", "addr", appCfg.GRPCAddr)
		if err := grpcSrv.GRPC.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "addr", appCfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 9. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcSrv.Stop()
}
