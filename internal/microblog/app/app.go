package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/api/server"
	"github.com/Leopold1975/microblog/internal/microblog/repository/feedcache"
	"github.com/Leopold1975/microblog/internal/microblog/repository/feedcache/redis"
	"github.com/Leopold1975/microblog/internal/microblog/services/authservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/postservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/tagservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/userservice"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/googleauth"
	"github.com/Leopold1975/microblog/internal/pkg/ratelimit"
	"github.com/Leopold1975/microblog/pkg/logger"
)

const sweepInterval = time.Minute

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type MicroblogApp struct {
	s       Server
	lg      logger.Logger
	cfg     config.Config
	closers []func()
}

func New(ctx context.Context, cfg config.Config) (MicroblogApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	repos, err := NewRepositories(ctx, cfg.DB)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("%s repositories initializing error: %w", cfg.DB.Driver, err)
	}

	a := MicroblogApp{
		lg:      lg,
		cfg:     cfg,
		closers: []func(){repos.Close},
	}

	var cache postservice.Cache = feedcache.Noop{}

	if cfg.RedisCache.Enabled {
		fc, err := redis.New(ctx, cfg.RedisCache)
		if err != nil {
			repos.Close()

			return MicroblogApp{}, fmt.Errorf("redis feed cache initializing error: %w", err)
		}

		cache = fc
		a.closers = append(a.closers, func() { fc.Close() })
	}

	postService := postservice.New(repos.Posts, repos.Tags, cache, lg)

	if cfg.RedisCache.Enabled {
		go postService.BackgroundWarmup(ctx, cfg.RedisCache.ExpTime)
	}

	limiter := ratelimit.New(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst, cfg.RateLimit.Idle)
	go sweep(ctx, limiter)

	services := server.Services{
		Auth:    authservice.New(repos.Users, cfg.Auth, lg),
		Posts:   postService,
		Tags:    tagservice.New(repos.Tags, lg),
		Users:   userservice.New(repos.Users, lg),
		Google:  nil,
		Limiter: limiter,
	}

	if cfg.Google.Enabled() {
		services.Google = googleauth.New(cfg.Google)
	} else {
		lg.Infof("google login disabled")
	}

	a.s = server.New(cfg, services, lg)

	return a, nil
}

func sweep(ctx context.Context, limiter *ratelimit.KeyedRateLimiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limiter.Sweep(now)
		}
	}
}

func (ma *MicroblogApp) Run(ctx context.Context) {
	ma.lg.Infof("STARTED SERVER ON %s DB %s", ma.cfg.Server.Addr, ma.cfg.DB.Driver)

	go func() {
		if err := ma.s.Start(ctx); err != nil {
			ma.lg.Errorf("server start error: %s", err.Error())
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ma.Stop(ctxS); err != nil { //nolint:contextcheck
		ma.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (ma *MicroblogApp) Stop(ctx context.Context) error {
	defer func() {
		for _, c := range ma.closers {
			c()
		}
	}()

	if err := ma.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	ma.lg.Info("Shutdowned successfully")

	return nil
}
