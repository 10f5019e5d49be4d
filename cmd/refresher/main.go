// Command refresher runs the background price refresh loop without the REST
// server, for deployments that split the API from the updater.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocksim-api/internal/cli"
	"stocksim-api/internal/config"
	"stocksim-api/internal/svc"
)

const (
	statusInterval  = time.Minute      // How often the loop state is logged
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting price refresher...")

	configPath := "etc/stocksim.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	appCfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[main] Failed to load app config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	serviceCtx := svc.NewServiceContext(*appCfg, configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serviceCtx.Scheduler.Start(); err != nil {
		log.Fatalf("[main] Failed to start scheduler: %v", err)
	}
	log.Println("[main] Refresher started. Press Ctrl+C to stop.")

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			status := serviceCtx.Scheduler.Status()
			log.Printf("[refresher] session=%s interval=%ds updates=%d errors=%d cooling=%t",
				status.Session, status.IntervalSeconds, status.TotalUpdates,
				status.ErrorStreak, status.CoolingDown)
		}
	}

	log.Println("[main] Shutdown signal received, stopping scheduler...")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := serviceCtx.Scheduler.Stop(); err != nil {
			log.Printf("[main] Scheduler stop: %v", err)
		}
	}()

	select {
	case <-done:
		log.Println("[main] Scheduler stopped cleanly")
	case <-time.After(shutdownTimeout):
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Price refresher stopped")
}
