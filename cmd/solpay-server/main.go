package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	solpay "github.com/vitwit/solpay"
	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/metrics"
	"github.com/vitwit/solpay/server"
	"github.com/vitwit/solpay/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	lg := logger.NewZapLogger(cfg.LogLevel)

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.EnableMetrics {
		rec = metrics.NewPrometheusRecorder()
	}

	pay, err := solpay.New(cfg, solpay.WithLogger(lg), solpay.WithMetrics(rec))
	if err != nil {
		log.Fatalf("initialization: %v", err)
	}
	defer pay.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(pay, cfg, lg)
	if err := srv.Run(ctx); err != nil {
		lg.Error("server exited", map[string]any{"error": err.Error()})
	}
}
