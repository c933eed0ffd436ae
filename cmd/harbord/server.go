package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborchat/harbor/moderation"
	"github.com/harborchat/harbor/moderation/censor"
	"github.com/harborchat/harbor/moderation/countstore"
	"github.com/harborchat/harbor/moderation/engine"
	"github.com/harborchat/harbor/moderation/statuscache"
	"github.com/harborchat/harbor/moderation/store"
	"github.com/harborchat/harbor/moderation/whitelist"
)

type Server struct {
	logger *slog.Logger
	svc    *moderation.Service
	cfg    ServerConfig
}

type ServerConfig struct {
	DatabasePath      string
	RedisURL          string
	StatusWebhookURL  string
	CirculatingSize   int
	CirculatingWindow time.Duration
	ArchiveWindow     time.Duration
	SweepInterval     time.Duration
}

func NewServer(logger *slog.Logger, cfg ServerConfig) (*Server, error) {
	st, err := store.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	var counters countstore.CountStore
	var refs statuscache.Cache
	if cfg.RedisURL != "" {
		counters, err = countstore.NewRedisCountStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		refs, err = statuscache.NewRedisCache(cfg.RedisURL, cfg.ArchiveWindow)
		if err != nil {
			return nil, err
		}
	} else {
		counters = countstore.NewMemCountStore()
		refs, err = statuscache.NewMemCache(1000)
		if err != nil {
			return nil, err
		}
	}

	var notifier engine.Notifier
	if cfg.StatusWebhookURL != "" {
		notifier = &engine.WebhookNotifier{
			URL:    cfg.StatusWebhookURL,
			Refs:   refs,
			Client: &http.Client{Timeout: 15 * time.Second},
		}
	}

	eng, err := engine.New(logger, engine.Config{
		CirculatingSize:   cfg.CirculatingSize,
		CirculatingWindow: cfg.CirculatingWindow,
		ArchiveWindow:     cfg.ArchiveWindow,
	}, st, &loggingActuator{logger: logger}, notifier, counters)
	if err != nil {
		return nil, err
	}

	svc := moderation.NewService(logger, st,
		censor.NewFilter(logger, st),
		whitelist.NewGate(logger, st),
		eng)

	return &Server{logger: logger, svc: svc, cfg: cfg}, nil
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.svc.Load(ctx); err != nil {
		return err
	}
	s.logger.Info("moderation service ready",
		"circulatingSize", s.cfg.CirculatingSize,
		"sweepInterval", s.cfg.SweepInterval)
	s.svc.Engine.RunSweeper(ctx, s.cfg.SweepInterval)
	return nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// loggingActuator stands in until a chat platform integration registers the
// real one. It records intent to the log and reports success so the engine's
// bookkeeping (pending queues, confinement marks) stays exercised.
type loggingActuator struct {
	logger *slog.Logger
}

var _ engine.Actuator = (*loggingActuator)(nil)

func (a *loggingActuator) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	a.logger.Info("would bulk delete", "channelID", channelID, "count", len(messageIDs))
	return nil
}

func (a *loggingActuator) ConfineMember(ctx context.Context, memberID, reason string, duration time.Duration) error {
	a.logger.Info("would confine", "memberID", memberID, "duration", duration, "reason", reason)
	return nil
}

func (a *loggingActuator) BanMember(ctx context.Context, memberID, reason string, historyDeletionDays int) error {
	a.logger.Info("would ban", "memberID", memberID, "historyDays", historyDeletionDays, "reason", reason)
	return nil
}
