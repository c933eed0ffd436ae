// Package store persists the moderator-editable configuration: blacklist
// patterns, whitelist entries, and escalation thresholds. Consumers cache
// everything; every write here must be followed by the consuming cache's
// Reload.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/whitelist"
)

// ErrNotFound is returned when a referenced row does not exist (or already
// expired from the store's point of view).
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when inserting a row that already exists.
var ErrDuplicate = errors.New("record already exists")

// BlacklistEntry is one banned word or restricted-subset pattern. Immutable
// once stored; edits are remove-then-add.
type BlacklistEntry struct {
	Pattern   string
	AddedBy   string
	CreatedAt time.Time
}

type Store interface {
	ListBlacklist(ctx context.Context) ([]BlacklistEntry, error)
	// ListBlacklistPatterns satisfies the censor filter's PatternSource.
	ListBlacklistPatterns(ctx context.Context) ([]string, error)
	AddBlacklistEntry(ctx context.Context, pattern, addedBy string) error
	RemoveBlacklistEntry(ctx context.Context, pattern string) error

	// ListWhitelistEntries satisfies the whitelist gate's EntrySource.
	ListWhitelistEntries(ctx context.Context) ([]whitelist.Entry, error)
	AddWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind, addedBy string) error
	RemoveWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind) error

	ListThresholds(ctx context.Context) ([]group.Threshold, error)
	UpsertThreshold(ctx context.Context, t group.Threshold) error
	RemoveThreshold(ctx context.Context, action group.ActionKind) error
}
