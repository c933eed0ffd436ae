// Package moderation ties the censorship and spam-grouping pipelines to the
// persistence store. Every store write made through the Service triggers the
// consuming cache's reload so the running configuration never drifts from
// what moderators persisted.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborchat/harbor/moderation/censor"
	"github.com/harborchat/harbor/moderation/engine"
	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/keyword"
	"github.com/harborchat/harbor/moderation/store"
	"github.com/harborchat/harbor/moderation/whitelist"
)

// Service is the top-level handle a chat integration embeds. It owns the
// censor filter, the whitelist gate, and the grouping engine, all backed by
// one store.
type Service struct {
	logger *slog.Logger

	Store  store.Store
	Filter *censor.Filter
	Gate   *whitelist.Gate
	Engine *engine.Engine
}

func NewService(logger *slog.Logger, st store.Store, filter *censor.Filter, gate *whitelist.Gate, eng *engine.Engine) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		Store:  st,
		Filter: filter,
		Gate:   gate,
		Engine: eng,
	}
}

// Load populates every cache from the store. Call once at startup before
// processing messages.
func (s *Service) Load(ctx context.Context) error {
	if err := s.Filter.Reload(ctx); err != nil {
		return fmt.Errorf("loading blacklist: %w", err)
	}
	if err := s.Gate.Reload(ctx); err != nil {
		return fmt.Errorf("loading whitelist: %w", err)
	}
	if err := s.Engine.ReloadThresholds(ctx); err != nil {
		return fmt.Errorf("loading thresholds: %w", err)
	}
	return nil
}

// ProcessMessage runs one message through the full pipeline. Whitelisted
// traffic bypasses both censoring and grouping. The returned string is the
// censored rendition when modified is true, and empty otherwise.
func (s *Service) ProcessMessage(ctx context.Context, msg engine.Message, roleIDs []string) (string, bool) {
	if s.Gate.Allowed(msg.Author.ID, msg.ChannelID, roleIDs) {
		return "", false
	}
	censored, modified := s.Filter.Censor(msg.Content)
	s.Engine.Ingest(ctx, msg)
	return censored, modified
}

// AddPattern validates a blacklist pattern, persists it, and rebuilds the
// matcher. The store is not touched when validation fails.
func (s *Service) AddPattern(ctx context.Context, pattern, addedBy string) error {
	if err := keyword.ValidatePattern(pattern); err != nil {
		return err
	}
	if _, err := keyword.Compile([]string{pattern}); err != nil {
		return err
	}
	if err := s.Store.AddBlacklistEntry(ctx, pattern, addedBy); err != nil {
		return err
	}
	return s.Filter.Reload(ctx)
}

func (s *Service) RemovePattern(ctx context.Context, pattern string) error {
	if err := s.Store.RemoveBlacklistEntry(ctx, pattern); err != nil {
		return err
	}
	return s.Filter.Reload(ctx)
}

func (s *Service) AddWhitelist(ctx context.Context, id string, kind whitelist.Kind, addedBy string) error {
	if err := s.Store.AddWhitelistEntry(ctx, id, kind, addedBy); err != nil {
		return err
	}
	return s.Gate.Reload(ctx)
}

func (s *Service) RemoveWhitelist(ctx context.Context, id string, kind whitelist.Kind) error {
	if err := s.Store.RemoveWhitelistEntry(ctx, id, kind); err != nil {
		return err
	}
	return s.Gate.Reload(ctx)
}

func (s *Service) SetThreshold(ctx context.Context, t group.Threshold) error {
	if !t.Action.Valid() {
		return &group.InvalidActionError{Kind: t.Action}
	}
	if err := s.Store.UpsertThreshold(ctx, t); err != nil {
		return err
	}
	return s.Engine.ReloadThresholds(ctx)
}

func (s *Service) ClearThreshold(ctx context.Context, action group.ActionKind) error {
	if err := s.Store.RemoveThreshold(ctx, action); err != nil {
		return err
	}
	return s.Engine.ReloadThresholds(ctx)
}
