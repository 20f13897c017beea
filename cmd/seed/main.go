package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Leopold1975/microblog/internal/microblog/app"
	"github.com/Leopold1975/microblog/internal/microblog/seed"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/pkg/logger"
)

func main() {
	var (
		configPath string
		posts      int
	)

	flag.StringVar(&configPath, "config", "", "path to configuration file")
	flag.IntVar(&posts, "posts", 500, "number of posts to create") //nolint:gomnd
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repos, err := app.NewRepositories(ctx, cfg.DB)
	if err != nil {
		log.Fatal(err)
	}
	defer repos.Close()

	if err := seed.New(repos.Users, repos.Tags, repos.Posts, lg).Run(ctx, posts); err != nil {
		lg.Errorf("seed error: %s", err.Error())
	}
}
