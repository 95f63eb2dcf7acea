package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/medvision/internal/bootstrap"
	"github.com/bryanwahyu/medvision/internal/config"
	"github.com/bryanwahyu/medvision/internal/infra/shell"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	pipeline, err := bootstrap.NewPipeline(context.Background(), cfg)
	if err != nil {
		log.Fatalf("pipeline init error: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	go limiter.Cleanup(10*time.Minute, stopCleanup)

	ui, err := shell.New(pipeline.Service, shell.Options{
		CookieName:     cfg.Shell.CookieName,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Models:         cfg.Groq.Models,
		Limiter:        limiter,
	})
	if err != nil {
		log.Fatalf("shell init error: %v", err)
	}
	go ui.Cleanup(cfg.Shell.SessionIdle, stopCleanup)

	addr := fmt.Sprintf(":%d", cfg.Shell.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     ui.Routes(),
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("shell listening on http://localhost%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down shell...")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
