package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/storyshare/service-api/internal/account/repo"
	"github.com/storyshare/service-api/internal/mail"
	"github.com/storyshare/service-api/internal/router"
	storyrepo "github.com/storyshare/service-api/internal/story/repo"
	"github.com/storyshare/service-api/internal/token"
	"github.com/storyshare/service-api/pkg/database"
	"github.com/storyshare/service-api/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LoggerConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting storyshare api")

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	// ensure schema before serving
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer startupCancel()
	if err := repo.NewAccountRepo(sqlxDB).EnsureTable(startupCtx); err != nil {
		sugar.Fatalf("ensure accounts table: %v", err)
	}
	if err := storyrepo.NewStoryRepo(sqlxDB).EnsureTable(startupCtx); err != nil {
		sugar.Fatalf("ensure stories table: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3005"
	}
	origins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	// mount http server
	handler := router.RegisterRoutes(sugar, sqlxDB, router.Config{
		AllowedOrigins: origins,
		Tokens:         token.NewService(token.ConfigFromEnv()),
		Mailer:         mail.NewSMTPMailer(mail.ConfigFromEnv()),
	})
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: handler,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Infof("service is listening on :%s; press Ctrl+C to stop", port)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// shutdown http server before closing the db
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
