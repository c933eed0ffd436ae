package whitelist

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	entries []Entry
}

func (s *stubSource) ListWhitelistEntries(ctx context.Context) ([]Entry, error) {
	return s.entries, nil
}

func TestGate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	src := &stubSource{entries: []Entry{
		{ID: "u1", Kind: KindUser},
		{ID: "c1", Kind: KindChannel},
		{ID: "r1", Kind: KindRole},
	}}
	g := NewGate(slog.Default(), src)

	// empty until first reload
	assert.False(g.Allowed("u1", "c1", []string{"r1"}))

	assert.NoError(g.Reload(ctx))
	assert.True(g.Allowed("u1", "c9", nil))
	assert.True(g.Allowed("u9", "c1", nil))
	assert.True(g.Allowed("u9", "c9", []string{"r9", "r1"}))
	assert.False(g.Allowed("u9", "c9", []string{"r9"}))
	assert.False(g.Allowed("u9", "c9", nil))

	// removal takes effect on the next wholesale rebuild
	src.entries = src.entries[:1]
	assert.NoError(g.Reload(ctx))
	assert.True(g.Allowed("u1", "c9", nil))
	assert.False(g.Allowed("u9", "c1", nil))
	assert.False(g.Allowed("u9", "c9", []string{"r1"}))
}
