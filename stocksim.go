// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/rest"

	"stocksim-api/internal/cli"
	"stocksim-api/internal/config"
	"stocksim-api/internal/handler"
	"stocksim-api/internal/svc"
	"stocksim-api/pkg/refresher"
)

var configFile = flag.String("f", "etc/stocksim.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg, *configFile)
	handler.RegisterHandlers(server, ctx)

	if cfg.SchedulerAutostart {
		if err := ctx.Scheduler.Start(); err != nil {
			panic(fmt.Errorf("start scheduler: %w", err))
		}
		defer func() {
			if err := ctx.Scheduler.Stop(); err != nil && !errors.Is(err, refresher.ErrNotRunning) {
				fmt.Printf("stop scheduler: %v\n", err)
			}
		}()
	}

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
