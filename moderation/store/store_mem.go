package store

import (
	"context"
	"sync"
	"time"

	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/whitelist"
)

// MemStore keeps configuration in memory. Used in tests and for ephemeral
// deployments.
type MemStore struct {
	mu         sync.Mutex
	blacklist  []BlacklistEntry
	whitelist  []whitelist.Entry
	thresholds map[group.ActionKind]group.Threshold
}

func NewMemStore() *MemStore {
	return &MemStore{
		thresholds: make(map[group.ActionKind]group.Threshold),
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) ListBlacklist(ctx context.Context) ([]BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BlacklistEntry, len(s.blacklist))
	copy(out, s.blacklist)
	return out, nil
}

func (s *MemStore) ListBlacklistPatterns(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blacklist))
	for _, e := range s.blacklist {
		out = append(out, e.Pattern)
	}
	return out, nil
}

func (s *MemStore) AddBlacklistEntry(ctx context.Context, pattern, addedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.blacklist {
		if e.Pattern == pattern {
			return ErrDuplicate
		}
	}
	s.blacklist = append(s.blacklist, BlacklistEntry{
		Pattern:   pattern,
		AddedBy:   addedBy,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemStore) RemoveBlacklistEntry(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.blacklist {
		if e.Pattern == pattern {
			s.blacklist = append(s.blacklist[:i], s.blacklist[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ListWhitelistEntries(ctx context.Context) ([]whitelist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]whitelist.Entry, len(s.whitelist))
	copy(out, s.whitelist)
	return out, nil
}

func (s *MemStore) AddWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind, addedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.whitelist {
		if e.ID == id && e.Kind == kind {
			return ErrDuplicate
		}
	}
	s.whitelist = append(s.whitelist, whitelist.Entry{ID: id, Kind: kind})
	return nil
}

func (s *MemStore) RemoveWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.whitelist {
		if e.ID == id && e.Kind == kind {
			s.whitelist = append(s.whitelist[:i], s.whitelist[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ListThresholds(ctx context.Context) ([]group.Threshold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]group.Threshold, 0, len(s.thresholds))
	for _, t := range s.thresholds {
		out = append(out, t)
	}
	return out, nil
}

func (s *MemStore) UpsertThreshold(ctx context.Context, t group.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[t.Action] = t
	return nil
}

func (s *MemStore) RemoveThreshold(ctx context.Context, action group.ActionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.thresholds[action]; !ok {
		return ErrNotFound
	}
	delete(s.thresholds, action)
	return nil
}
