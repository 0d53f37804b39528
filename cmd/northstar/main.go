package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/config"
	"github.com/jongibson0501/northstar-app/internal/db"
	httpx "github.com/jongibson0501/northstar-app/internal/http"
	"github.com/jongibson0501/northstar-app/internal/jobs"
	"github.com/jongibson0501/northstar-app/internal/roadmap"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	gen := &roadmap.Service{Log: logger}
	if cfg.OpenAIAPIKey != "" {
		gen.Client = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		logger.Info("no OpenAI key configured, roadmap generator in fallback-only mode")
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(httpx.Deps{
		Config:    cfg,
		DB:        gdb,
		JWT:       jwtSvc,
		Log:       logger,
		Generator: gen,
	})

	// nudge worker
	jobsRepo := &jobs.Repo{DB: gdb}
	worker := &jobs.Worker{
		ID:   "worker-" + uuid.NewString(),
		Repo: jobsRepo,
		DB:   gdb,
		Log:  logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
