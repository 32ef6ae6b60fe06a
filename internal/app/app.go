// Package app собирает зависимости сайта по конфигурации.
package app

import (
	"context"
	"fmt"
	"net/http"

	"newsnotes/internal/auth"
	"newsnotes/internal/config"
	"newsnotes/internal/db"
	"newsnotes/internal/events"
	"newsnotes/internal/logger"
	"newsnotes/internal/metrics"
	"newsnotes/internal/middleware"
	"newsnotes/internal/render"
	"newsnotes/internal/server"
	"newsnotes/internal/storage"
	"newsnotes/internal/users"
)

// App - общие для обоих сайтов зависимости.
type App struct {
	Config    *config.Config
	Store     storage.Storage
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Auth      *auth.Manager

	closers []func()
}

// New открывает хранилище и брокер событий согласно cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New()}

	switch cfg.Storage {
	case config.StoragePostgres:
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("DB connection error: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		a.Store = storage.NewPostgresStorage(database.Pool)
	default:
		logger.Log.Warn("Using in-memory storage, data is lost on restart")
		a.Store = storage.NewMemoryStorage()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, func() {
			if err := p.Close(); err != nil {
				logger.Log.WithError(err).Warn("Kafka publisher close error")
			}
		})
		a.Publisher = p
	} else {
		a.Publisher = events.Nop{}
	}

	a.Auth = auth.NewManager(a.Store, cfg.SessionTTL())
	return a, nil
}

// Routes строит обработчик сайта: страницы /auth/, /health, /metrics
// и маршруты, добавленные register.
func (a *App) Routes(r render.Renderer, register func(mux *http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	users.NewHandler(a.Auth, r, "/").Register(mux)
	register(mux)
	mux.HandleFunc("GET /health", server.HealthCheck(a.Store))
	mux.Handle("GET /metrics", a.Metrics.Handler())

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware,
		a.Auth.Middleware,
		middleware.MetricsMiddleware(a.Metrics),
	)
}

// Close освобождает ресурсы в обратном порядке открытия.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
