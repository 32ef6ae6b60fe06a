package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsnotes/internal/app"
	"newsnotes/internal/config"
	"newsnotes/internal/fetcher"
	"newsnotes/internal/logger"
	"newsnotes/internal/news"
	"newsnotes/internal/render"
	"newsnotes/internal/server"
)

func main() {
	logger.Init("news")
	defer logger.Log.Info("Application stopped")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Загрузка конфигурации
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.json"), ":8080")
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Startup error: %v", err)
	}
	defer a.Close()

	tmpl, err := render.NewTemplates("YaNews")
	if err != nil {
		logger.Log.Fatalf("Templates error: %v", err)
	}

	// Запуск периодического опроса RSS
	if len(cfg.RSSFeeds) > 0 {
		poller := fetcher.NewPoller(fetcher.New(nil), a.Store, cfg.RSSFeeds, time.Duration(cfg.PollInterval)*time.Minute)
		go poller.Run(ctx)
	}

	handler := news.NewHandler(a.Store, tmpl, a.Publisher, a.Metrics, cfg.NewsCountOnHomePage)
	srv := server.NewServer(cfg.Addr, a.Routes(tmpl, handler.Register))
	if err := srv.Run(ctx); err != nil {
		logger.Log.Errorf("Server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
