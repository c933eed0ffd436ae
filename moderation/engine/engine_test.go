package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborchat/harbor/moderation/group"
)

func msg(id, channel, sender, content string) Message {
	return Message{
		ID:        id,
		GuildID:   "g1",
		ChannelID: channel,
		Content:   content,
		Author:    group.MemberRef{ID: sender, Manageable: true},
	}
}

func TestGroupingBelowThreshold(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, actuator, _ := EngineTestFixture(Config{},
		group.Threshold{Action: group.ActionDelete, MessageCount: 4})

	for i := 1; i <= 3; i++ {
		eng.Ingest(ctx, msg(fmt.Sprintf("m%d", i), "c1", "u1", "hello world"))
	}

	snap, err := eng.GroupStats("m1")
	require.NoError(t, err)
	assert.Equal(3, snap.TotalCount)
	assert.False(snap.Actions[group.ActionDelete].Active)
	assert.Empty(actuator.DeleteCalls())
}

func TestGroupingKeyNormalization(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{})

	// spacing, case, punctuation and emoji variants coalesce into one group
	eng.Ingest(ctx, msg("m1", "c1", "u1", "Hello World"))
	eng.Ingest(ctx, msg("m2", "c1", "u2", "hello   world!!!"))
	eng.Ingest(ctx, msg("m3", "c2", "u3", "HELLO WORLD 🎉"))

	snap, err := eng.GroupStats("m1")
	require.NoError(t, err)
	assert.Equal(3, snap.TotalCount)

	// content that normalizes to nothing is never grouped
	eng.Ingest(ctx, msg("m4", "c1", "u1", "🎉🎉 !!!"))
	_, err = eng.GroupStats("m4")
	assert.ErrorIs(err, ErrGroupExpired)
}

func TestDeleteEscalationScenario(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, actuator, notifier := EngineTestFixture(Config{},
		group.Threshold{Action: group.ActionDelete, MessageCount: 4})

	// 5 copies across 2 channels by 2 senders
	eng.Ingest(ctx, msg("m1", "c1", "u1", "spam"))
	eng.Ingest(ctx, msg("m2", "c1", "u1", "spam"))
	eng.Ingest(ctx, msg("m3", "c1", "u2", "spam"))
	eng.Ingest(ctx, msg("m4", "c2", "u2", "spam"))
	eng.Ingest(ctx, msg("m5", "c2", "u1", "spam"))

	snap, err := eng.GroupStats("m1")
	require.NoError(t, err)
	assert.Equal(5, snap.TotalCount)
	assert.True(snap.Actions[group.ActionDelete].Active)
	assert.Equal("automod", snap.Actions[group.ActionDelete].ActorID)

	sum := 0
	for _, c := range snap.ChannelCounts {
		sum += c
	}
	assert.Equal(5, sum)

	// every copy got bulk-deleted, both channels were hit
	deletedBy := map[string][]string{}
	var deleted []string
	for _, call := range actuator.DeleteCalls() {
		deletedBy[call.ChannelID] = append(deletedBy[call.ChannelID], call.MessageIDs...)
		deleted = append(deleted, call.MessageIDs...)
	}
	assert.Len(deletedBy, 2)
	assert.ElementsMatch([]string{"m1", "m2", "m3"}, deletedBy["c1"])
	assert.ElementsMatch([]string{"m4", "m5"}, deletedBy["c2"])
	assert.ElementsMatch([]string{"m1", "m2", "m3", "m4", "m5"}, deleted)

	// notify rode along and the status message was refreshed
	assert.True(snap.Actions[group.ActionNotify].Active)
	assert.Greater(notifier.Updates("m1"), 0)
}

func TestChannelCountThreshold(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{},
		group.Threshold{Action: group.ActionNotify, ChannelCount: 3})

	eng.Ingest(ctx, msg("m1", "c1", "u1", "crosspost"))
	eng.Ingest(ctx, msg("m2", "c2", "u1", "crosspost"))

	snap, _ := eng.GroupStats("m1")
	assert.False(snap.Actions[group.ActionNotify].Active)

	eng.Ingest(ctx, msg("m3", "c3", "u1", "crosspost"))
	snap, _ = eng.GroupStats("m1")
	assert.True(snap.Actions[group.ActionNotify].Active)
}

func TestEvictionDiscardsQuietGroups(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{CirculatingSize: 2})

	eng.Ingest(ctx, msg("m1", "c1", "u1", "content one"))
	eng.Ingest(ctx, msg("m2", "c1", "u1", "content two"))
	eng.Ingest(ctx, msg("m3", "c1", "u1", "content three"))

	// oldest group had no actions: discarded silently
	_, err := eng.GroupStats("m1")
	assert.ErrorIs(err, ErrGroupExpired)
	_, err = eng.GroupStats("m2")
	assert.NoError(err)
}

func TestEvictionArchivesEscalatedGroups(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{CirculatingSize: 2, ArchiveWindow: time.Hour},
		group.Threshold{Action: group.ActionDelete, MessageCount: 1})

	eng.Ingest(ctx, msg("m1", "c1", "u1", "escalated content"))
	eng.Ingest(ctx, msg("m2", "c1", "u1", "filler one"))
	eng.Ingest(ctx, msg("m3", "c1", "u1", "filler two"))

	// the escalated group survived eviction into the archive, inactive
	snap, err := eng.GroupStats("m1")
	require.NoError(t, err)
	assert.False(snap.Active)
	assert.True(snap.Actions[group.ActionDelete].Active)
}

func TestPromoteOnHit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{CirculatingSize: 2})

	eng.Ingest(ctx, msg("m1", "c1", "u1", "content one"))
	eng.Ingest(ctx, msg("m2", "c1", "u1", "content two"))
	// hit on content one promotes it to most-recent
	eng.Ingest(ctx, msg("m3", "c1", "u1", "content one"))
	// so content two is the eviction victim now
	eng.Ingest(ctx, msg("m4", "c1", "u1", "content three"))

	_, err := eng.GroupStats("m1")
	assert.NoError(err)
	_, err = eng.GroupStats("m2")
	assert.ErrorIs(err, ErrGroupExpired)
}

func TestExpireSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture(Config{CirculatingWindow: time.Minute})

	eng.Ingest(ctx, msg("m1", "c1", "u1", "short lived"))
	eng.ExpireSweep(time.Now().Add(30 * time.Second))
	_, err := eng.GroupStats("m1")
	assert.NoError(err)

	eng.ExpireSweep(time.Now().Add(2 * time.Minute))
	_, err = eng.GroupStats("m1")
	assert.ErrorIs(err, ErrGroupExpired)
}
