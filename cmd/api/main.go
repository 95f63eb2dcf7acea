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
	"github.com/bryanwahyu/medvision/internal/infra/httpserver"
	"github.com/bryanwahyu/medvision/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	pipeline, err := bootstrap.NewPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("pipeline init error: %v", err)
	}
	pipeline.Checkers["static"] = middleware.DirHealthChecker{Dir: cfg.Static.Dir}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	go limiter.Cleanup(10*time.Minute, stopCleanup)

	handler := httpserver.NewRouter(pipeline.Service, httpserver.Options{
		StaticDir:      cfg.Static.Dir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limiter:        limiter,
		Checkers:       pipeline.Checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	// WriteTimeout dibiarkan 0: analisis bisa lebih lama dari timeout biasa
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	close(stopCleanup)

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
