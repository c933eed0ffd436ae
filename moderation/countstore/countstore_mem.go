package countstore

import (
	"context"
	"sync"
)

// MemCountStore keeps counters in process memory. Suitable for tests and
// single-node deployments; counters reset on restart.
type MemCountStore struct {
	mu       sync.Mutex
	counts   map[string]int
	distinct map[string]map[string]struct{}
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		counts:   make(map[string]int),
		distinct: make(map[string]map[string]struct{}),
	}
}

var _ CountStore = (*MemCountStore)(nil)

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[bucketKey(name, val, period)], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		s.counts[bucketKey(name, val, p)]++
	}
	return nil
}

func (s *MemCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.distinct[bucketKey(name, bucket, period)]), nil
}

func (s *MemCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		k := bucketKey(name, bucket, p)
		set, ok := s.distinct[k]
		if !ok {
			set = make(map[string]struct{})
			s.distinct[k] = set
		}
		set[val] = struct{}{}
	}
	return nil
}
