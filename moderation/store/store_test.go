package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/whitelist"
)

func TestMemStoreBlacklist(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStore()

	patterns, err := s.ListBlacklistPatterns(ctx)
	assert.NoError(err)
	assert.Empty(patterns)

	assert.NoError(s.AddBlacklistEntry(ctx, "scam", "mod1"))
	assert.NoError(s.AddBlacklistEntry(ctx, "spam", "mod1"))
	assert.ErrorIs(s.AddBlacklistEntry(ctx, "scam", "mod2"), ErrDuplicate)

	patterns, err = s.ListBlacklistPatterns(ctx)
	assert.NoError(err)
	assert.Equal([]string{"scam", "spam"}, patterns)

	entries, err := s.ListBlacklist(ctx)
	assert.NoError(err)
	assert.Len(entries, 2)
	assert.Equal("mod1", entries[0].AddedBy)

	assert.NoError(s.RemoveBlacklistEntry(ctx, "scam"))
	assert.ErrorIs(s.RemoveBlacklistEntry(ctx, "scam"), ErrNotFound)
}

func TestMemStoreWhitelist(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStore()

	assert.NoError(s.AddWhitelistEntry(ctx, "u1", whitelist.KindUser, "mod1"))
	assert.NoError(s.AddWhitelistEntry(ctx, "u1", whitelist.KindChannel, "mod1"))
	assert.ErrorIs(s.AddWhitelistEntry(ctx, "u1", whitelist.KindUser, "mod1"), ErrDuplicate)

	entries, err := s.ListWhitelistEntries(ctx)
	assert.NoError(err)
	assert.Len(entries, 2)

	assert.NoError(s.RemoveWhitelistEntry(ctx, "u1", whitelist.KindUser))
	assert.ErrorIs(s.RemoveWhitelistEntry(ctx, "u1", whitelist.KindUser), ErrNotFound)
}

func TestMemStoreThresholds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStore()

	assert.NoError(s.UpsertThreshold(ctx, group.Threshold{
		Action:       group.ActionDelete,
		MessageCount: 4,
		SetBy:        "mod1",
	}))
	// upsert replaces, never duplicates
	assert.NoError(s.UpsertThreshold(ctx, group.Threshold{
		Action:       group.ActionDelete,
		MessageCount: 6,
		SetBy:        "mod2",
	}))

	ths, err := s.ListThresholds(ctx)
	assert.NoError(err)
	assert.Len(ths, 1)
	assert.Equal(6, ths[0].MessageCount)

	assert.NoError(s.RemoveThreshold(ctx, group.ActionDelete))
	assert.ErrorIs(s.RemoveThreshold(ctx, group.ActionDelete), ErrNotFound)
}
