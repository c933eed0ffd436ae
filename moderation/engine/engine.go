// Package engine implements the spam grouping engine and its
// threshold-escalation state machine: near-duplicate messages are clustered
// into rolling groups, and configured thresholds drive automatic moderation
// actions, with manual override through the same claim path.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harborchat/harbor/moderation/countstore"
	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/keyword"
)

// ErrGroupExpired is returned when a referenced group is no longer tracked
// (evicted, swept, or never existed).
var ErrGroupExpired = errors.New("message group expired")

// Message is one inbound chat message, pre-screened by the whitelist gate.
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	Content   string
	Author    group.MemberRef
}

// ThresholdSource yields the configured escalation thresholds. Satisfied by
// the persistence store.
type ThresholdSource interface {
	ListThresholds(ctx context.Context) ([]group.Threshold, error)
}

type Config struct {
	// capacity of the circulating window
	CirculatingSize int
	// expiration window while a group circulates
	CirculatingWindow time.Duration
	// extended window once a group is demoted to the archive
	ArchiveWindow time.Duration
	// upper bound on any one batch of side-effect calls
	SideEffectTimeout time.Duration
	// actor id stamped on automatic claims
	SystemActorID string
}

func DefaultConfig() Config {
	return Config{
		CirculatingSize:   10,
		CirculatingWindow: 5 * time.Minute,
		ArchiveWindow:     time.Hour,
		SideEffectTimeout: 5 * time.Second,
		SystemActorID:     "automod",
	}
}

// Engine routes incoming messages into message groups and runs escalation.
// Group mutation is serialized: the engine mutex guards the window and
// indexes, and each group carries its own lock which the expiration sweep
// shares.
type Engine struct {
	logger   *slog.Logger
	cfg      Config
	actuator Actuator
	notifier Notifier
	counters countstore.CountStore

	thresholdSource ThresholdSource
	thresholds      atomic.Pointer[[]group.Threshold]

	mu      sync.Mutex
	window  *lru.Cache[string, *group.Group]
	archive map[string]*group.Group
	byID    map[string]*group.Group
	// true while the sweep removes entries, so the eviction hook does not
	// re-archive groups being expired
	sweeping bool
}

func New(logger *slog.Logger, cfg Config, thresholds ThresholdSource, actuator Actuator, notifier Notifier, counters countstore.CountStore) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CirculatingSize <= 0 {
		cfg.CirculatingSize = DefaultConfig().CirculatingSize
	}
	if cfg.CirculatingWindow <= 0 {
		cfg.CirculatingWindow = DefaultConfig().CirculatingWindow
	}
	if cfg.ArchiveWindow <= 0 {
		cfg.ArchiveWindow = DefaultConfig().ArchiveWindow
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = DefaultConfig().SideEffectTimeout
	}
	if cfg.SystemActorID == "" {
		cfg.SystemActorID = DefaultConfig().SystemActorID
	}

	e := &Engine{
		logger:          logger,
		cfg:             cfg,
		actuator:        actuator,
		notifier:        notifier,
		counters:        counters,
		thresholdSource: thresholds,
		archive:         make(map[string]*group.Group),
		byID:            make(map[string]*group.Group),
	}
	e.thresholds.Store(&[]group.Threshold{})

	window, err := lru.NewWithEvict(cfg.CirculatingSize, e.onEvict)
	if err != nil {
		return nil, err
	}
	e.window = window
	return e, nil
}

// onEvict runs whenever the circulating window pushes out its oldest group.
// A group that took (or triggered) any action is demoted into the archive
// with the extended window; anything else is discarded. Called with the
// engine mutex held.
func (e *Engine) onEvict(key string, g *group.Group) {
	if e.sweeping {
		return
	}
	if g.HasClaimedAction() {
		g.Demote(e.cfg.ArchiveWindow)
		e.archive[g.ID] = g
		groupEvictedCount.WithLabelValues("archived").Inc()
		e.logger.Info("group archived", "groupID", g.ID, "total", g.Total())
		return
	}
	delete(e.byID, g.ID)
	groupEvictedCount.WithLabelValues("discarded").Inc()
}

// ReloadThresholds reads the configured thresholds from the store and swaps
// the snapshot atomically.
func (e *Engine) ReloadThresholds(ctx context.Context) error {
	ths, err := e.thresholdSource.ListThresholds(ctx)
	if err != nil {
		return err
	}
	e.thresholds.Store(&ths)
	e.logger.Info("thresholds reloaded", "count", len(ths))
	return nil
}

// Thresholds returns the current threshold snapshot.
func (e *Engine) Thresholds() []group.Threshold {
	return *e.thresholds.Load()
}

// Ingest routes one message into its group (creating the group on first
// occurrence of novel content) and runs the escalation state machine. Never
// returns an error for per-message failures; those are isolated and logged
// so one bad message cannot poison shared state.
func (e *Engine) Ingest(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("moderation ingest panic", "err", r, "messageID", msg.ID)
			messageProcessErrors.Inc()
		}
	}()

	key := keyword.ContentKey(msg.Content)
	if key == "" {
		return
	}
	now := time.Now()

	e.mu.Lock()
	g, ok := e.window.Get(key) // promotes to most-recent on hit
	if !ok {
		g = group.New(msg.ID, key, msg.Content, e.cfg.CirculatingWindow, now)
		e.byID[g.ID] = g
		e.window.Add(key, g) // may evict the oldest group
		groupCreatedCount.Inc()
	}
	e.mu.Unlock()

	g.Append(msg.ChannelID, msg.ID, msg.Author, now)
	e.recordCounters(ctx, msg, key)
	e.escalate(ctx, g)
	messageProcessCount.Inc()
}

// Claim is the manual override path: a moderator claims an action directly.
// One-writer-wins; claims of delete/jail/ban are vetoed once ignore is
// active. Side effects run immediately on success.
func (e *Engine) Claim(ctx context.Context, groupID string, kind group.ActionKind, actorID string, extra int64) error {
	if !kind.Valid() {
		return &group.InvalidActionError{Kind: kind}
	}
	g := e.lookup(groupID)
	if g == nil {
		return ErrGroupExpired
	}
	if err := g.Claim(kind, actorID, extra, true, time.Now()); err != nil {
		return err
	}
	actionTriggeredCount.WithLabelValues(string(kind), "manual").Inc()
	e.logger.Info("action claimed", "groupID", groupID, "kind", kind, "actorID", actorID)

	// a manual claim of anything but ignore forces notify
	if kind != group.ActionIgnore && kind != group.ActionNotify {
		_ = g.Claim(group.ActionNotify, e.cfg.SystemActorID, 0, false, time.Now())
	}
	e.applyEffects(ctx, g)
	return nil
}

// GroupStats returns a snapshot of a tracked group, or ErrGroupExpired.
func (e *Engine) GroupStats(groupID string) (group.Snapshot, error) {
	g := e.lookup(groupID)
	if g == nil {
		return group.Snapshot{}, ErrGroupExpired
	}
	return g.Stats(), nil
}

func (e *Engine) lookup(groupID string) *group.Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.byID[groupID]
}

// ExpireSweep drops every group whose expiration window lapsed, from both
// the circulating window and the archive.
func (e *Engine) ExpireSweep(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweeping = true
	for _, key := range e.window.Keys() {
		g, ok := e.window.Peek(key)
		if !ok || !g.Expired(now) {
			continue
		}
		e.window.Remove(key)
		delete(e.byID, g.ID)
		groupExpiredCount.WithLabelValues("circulating").Inc()
	}
	e.sweeping = false

	for id, g := range e.archive {
		if !g.Expired(now) {
			continue
		}
		delete(e.archive, id)
		delete(e.byID, id)
		groupExpiredCount.WithLabelValues("archive").Inc()
	}
}

// RunSweeper runs the expiration sweep on a timer until ctx is done.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ExpireSweep(time.Now())
		}
	}
}

func (e *Engine) recordCounters(ctx context.Context, msg Message, key string) {
	if e.counters == nil {
		return
	}
	if err := e.counters.Increment(ctx, "ingest", msg.GuildID); err != nil {
		e.logger.Warn("counter increment failed", "err", err)
		return
	}
	_ = e.counters.Increment(ctx, "sender", msg.Author.ID)
	_ = e.counters.IncrementDistinct(ctx, "channels", key, msg.ChannelID)
}
