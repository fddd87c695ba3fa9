package config

import (
	"fmt"
	"time"
)

type AppConfig struct {
	HTTPAddr string
	GRPCAddr string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	MediaRoot  string
	MaxImageMB int

	LogLevel string
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:    getEnv("GRPC_ADDR", ":50051"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "RollCall_Backend"),
		JWTAudience: getEnv("JWT_AUDIENCE", "EndUser"),
		TokenTTL:    getEnvDuration("JWT_TTL", 72*time.Hour),
		MediaRoot:   getEnv("MEDIA_ROOT", "media"),
		MaxImageMB:  getEnvInt("MAX_IMAGE_MB", 10),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("invalid app config: JWT_SECRET must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("invalid app config: JWT_TTL must be positive")
	}
	if cfg.MaxImageMB <= 0 {
		return nil, fmt.Errorf("invalid app config: MAX_IMAGE_MB must be positive")
	}

	return cfg, nil
}
