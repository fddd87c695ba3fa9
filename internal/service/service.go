// Package service реализует операции над ростерами, сменами, заявками на
// обмен и отметками. Каждая операция логирует итог и обновляет метрики.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Leganyst/rollcall/internal/logging"
	"github.com/Leganyst/rollcall/internal/repository"
)

type Option func(*base)

// WithLogger задаёт логгер по умолчанию (логгер из контекста важнее).
func WithLogger(l *slog.Logger) Option {
	return func(b *base) { b.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(b *base) { b.metrics = m }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

type base struct {
	name    string
	store   *repository.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

func newBase(name string, store *repository.Store, opts []Option) base {
	b := base{name: name, store: store, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) clock() time.Time {
	return b.now().UTC()
}

// finish пишет итог операции в лог и метрики и возвращает err как есть.
func (b *base) finish(ctx context.Context, op string, err error, attrs ...any) error {
	logger := logging.ForOperation(ctx, b.logger, b.name, op, attrs...)
	logging.Outcome(ctx, logger, err, op)
	b.metrics.observe(b.name, op, err)
	return err
}
