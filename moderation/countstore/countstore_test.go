package countstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "ingest", "guild1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(cs.Increment(ctx, "ingest", "guild1"))
	assert.NoError(cs.Increment(ctx, "ingest", "guild1"))
	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "ingest", "guild1", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	// distinct values collapse
	assert.NoError(cs.IncrementDistinct(ctx, "channels", "key1", "c1"))
	assert.NoError(cs.IncrementDistinct(ctx, "channels", "key1", "c1"))
	assert.NoError(cs.IncrementDistinct(ctx, "channels", "key1", "c2"))
	c, err = cs.GetCountDistinct(ctx, "channels", "key1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(2, c)

	// namespaces do not bleed into one another
	c, err = cs.GetCount(ctx, "ingest", "guild2", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
}
