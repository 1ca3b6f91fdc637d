package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"openspaces/api/internal/app"
	"openspaces/api/internal/auth"
	"openspaces/api/internal/config"
	"openspaces/api/internal/email"
	"openspaces/api/internal/ideas"
	"openspaces/api/internal/kv"
	"openspaces/api/internal/schedule"
	"openspaces/api/internal/store"
)

func main() {
	// Local development convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	dataStore := store.NewPostgresStore(db)

	kvStore, err := kv.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer kvStore.Close()

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !mailer.IsConfigured() {
		log.Printf("SMTP not configured, magic links will be logged instead of sent")
	}

	authSvc := auth.NewService(auth.Config{
		BaseURL:        cfg.BaseURL,
		LoginTokenTTL:  cfg.LoginTokenTTL,
		InviteTokenTTL: cfg.InviteTokenTTL,
		SessionTTL:     cfg.SessionTTL,
	}, dataStore, kvStore, mailer)
	if err := authSvc.Bootstrap(ctx, cfg.SeedAdminEmail); err != nil {
		log.Printf("WARNING: admin bootstrap error (will retry on next restart): %v", err)
	}

	ideaSvc := ideas.NewService(kvStore, cfg.IdeaTTL)
	assembler := schedule.NewAssembler(dataStore, ideaSvc)

	httpServer := app.NewHTTPServer(authSvc, ideaSvc, assembler, dataStore, kvStore, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Open Spaces API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
