// Package whitelist implements the bypass check exempting certain users,
// channels, and roles from censorship and spam handling.
package whitelist

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Kind discriminates whitelist entries.
type Kind string

const (
	KindUser    Kind = "user"
	KindChannel Kind = "channel"
	KindRole    Kind = "role"
)

// Entry is a single whitelist row as stored.
type Entry struct {
	ID   string
	Kind Kind
}

// EntrySource yields all active whitelist rows. Satisfied by the persistence
// store.
type EntrySource interface {
	ListWhitelistEntries(ctx context.Context) ([]Entry, error)
}

// snapshot holds the three flat id sets. Immutable once built; never mutated
// in place. Rebuilt wholesale on any whitelist change so the cache cannot
// drift from the store.
type snapshot struct {
	users    map[string]bool
	channels map[string]bool
	roles    map[string]bool
}

func emptySnapshot() *snapshot {
	return &snapshot{
		users:    map[string]bool{},
		channels: map[string]bool{},
		roles:    map[string]bool{},
	}
}

// Gate answers "should moderation skip this message entirely". Reads are
// lock-free against an atomic snapshot pointer.
type Gate struct {
	logger *slog.Logger
	source EntrySource
	snap   atomic.Pointer[snapshot]
}

func NewGate(logger *slog.Logger, source EntrySource) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{logger: logger, source: source}
	g.snap.Store(emptySnapshot())
	return g
}

// Reload rebuilds the id sets from the store and swaps them in atomically.
func (g *Gate) Reload(ctx context.Context) error {
	entries, err := g.source.ListWhitelistEntries(ctx)
	if err != nil {
		return err
	}
	next := emptySnapshot()
	for _, e := range entries {
		switch e.Kind {
		case KindUser:
			next.users[e.ID] = true
		case KindChannel:
			next.channels[e.ID] = true
		case KindRole:
			next.roles[e.ID] = true
		default:
			g.logger.Warn("unhandled whitelist entry kind", "kind", e.Kind, "id", e.ID)
		}
	}
	g.snap.Store(next)
	g.logger.Info("whitelist reloaded", "entries", len(entries))
	return nil
}

// Allowed reports whether a message from authorID in channelID, whose author
// holds roleIDs, bypasses censorship and spam checks.
func (g *Gate) Allowed(authorID, channelID string, roleIDs []string) bool {
	s := g.snap.Load()
	if s.users[authorID] || s.channels[channelID] {
		return true
	}
	for _, r := range roleIDs {
		if s.roles[r] {
			return true
		}
	}
	return false
}
