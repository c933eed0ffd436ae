package statuscache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemCache is a bounded in-process ref cache. Spam groups are short-lived,
// so a small LRU is plenty; an evicted ref just means one extra status post.
type MemCache struct {
	refs *lru.Cache[string, StatusRef]
}

func NewMemCache(size int) (*MemCache, error) {
	refs, err := lru.New[string, StatusRef](size)
	if err != nil {
		return nil, err
	}
	return &MemCache{refs: refs}, nil
}

var _ Cache = (*MemCache)(nil)

func (c *MemCache) GetRef(ctx context.Context, groupID string) (StatusRef, error) {
	ref, ok := c.refs.Get(groupID)
	if !ok {
		return StatusRef{}, nil
	}
	return ref, nil
}

func (c *MemCache) SetRef(ctx context.Context, groupID string, ref StatusRef) error {
	c.refs.Add(groupID, ref)
	return nil
}

func (c *MemCache) PurgeRef(ctx context.Context, groupID string) error {
	c.refs.Remove(groupID)
	return nil
}
