package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"newsnotes/internal/app"
	"newsnotes/internal/config"
	"newsnotes/internal/logger"
	"newsnotes/internal/notes"
	"newsnotes/internal/render"
	"newsnotes/internal/server"
)

func main() {
	logger.Init("notes")
	defer logger.Log.Info("Application stopped")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.json"), ":8081")
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Startup error: %v", err)
	}
	defer a.Close()

	tmpl, err := render.NewTemplates("YaNote")
	if err != nil {
		logger.Log.Fatalf("Templates error: %v", err)
	}

	handler := notes.NewHandler(a.Store, tmpl, a.Publisher, a.Metrics)
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
