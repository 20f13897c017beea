package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/web/gateway"
	"github.com/Leopold1975/microblog/pkg/apiclient"
	"github.com/Leopold1975/microblog/pkg/logger"
)

func main() {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync() //nolint:errcheck

	client, err := apiclient.New(cfg.Web.APIURL)
	if err != nil {
		log.Fatal(err)
	}

	g, err := gateway.New(cfg.Web, client, lg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := g.Start(ctx); err != nil {
		lg.Errorf("web gateway error: %s", err.Error())
		os.Exit(1) //nolint:gocritic
	}
}
