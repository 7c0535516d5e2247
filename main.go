package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/pkg/config"
	"github.com/FACorreiaa/loci-discovery/internal/routes"
	"github.com/FACorreiaa/loci-discovery/internal/server"
	"github.com/FACorreiaa/loci-discovery/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), zap.String("service", cfg.Observability.ServiceName)); err != nil {
		return err
	}
	defer func() { _ = logger.Log.Sync() }()
	lg := logger.Log

	otelShutdown, err := server.InitObservability(cfg.Observability, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			lg.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, lg)
	if err != nil {
		return err
	}
	defer srv.Close()

	router := server.SetupRouter(cfg, routes.Dependencies{DB: srv.GetDBPool(), OnShutdown: srv.OnShutdown}, lg)
	srv.SetRouter(router)

	server.StartPprofServer(cfg.Observability.PprofAddr, lg)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, lg, done)

	lg.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	lg.Info("Graceful shutdown complete")
	return nil
}
