package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborchat/harbor/moderation/censor"
	"github.com/harborchat/harbor/moderation/engine"
	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/store"
	"github.com/harborchat/harbor/moderation/whitelist"
)

func serviceFixture(t *testing.T) (*Service, *engine.RecordingActuator) {
	t.Helper()

	st := store.NewMemStore()
	actuator := engine.NewRecordingActuator()
	notifier := engine.NewRecordingNotifier()
	eng, err := engine.New(nil, engine.Config{}, st, actuator, notifier, nil)
	require.NoError(t, err)

	svc := NewService(nil, st, censor.NewFilter(nil, st), whitelist.NewGate(nil, st), eng)
	require.NoError(t, svc.Load(context.Background()))
	return svc, actuator
}

func chatMsg(id, channelID, authorID, content string) engine.Message {
	return engine.Message{
		ID: id, GuildID: "g1", ChannelID: channelID, Content: content,
		Author: group.MemberRef{ID: authorID, Manageable: true},
	}
}

func TestServiceCensorWriteThrough(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	// no blacklist yet
	out, modified := svc.ProcessMessage(ctx, chatMsg("m1", "c1", "u1", "free spam here"), nil)
	assert.False(modified)
	assert.Empty(out)

	require.NoError(t, svc.AddPattern(ctx, "spam", "mod1"))

	out, modified = svc.ProcessMessage(ctx, chatMsg("m2", "c1", "u1", "free spam here"), nil)
	assert.True(modified)
	assert.Equal("free s∗∗∗ here", out)

	require.NoError(t, svc.RemovePattern(ctx, "spam"))
	_, modified = svc.ProcessMessage(ctx, chatMsg("m3", "c1", "u1", "free spam here"), nil)
	assert.False(modified)
}

func TestServiceRejectsInvalidPattern(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	var ve *ValidationError
	assert.ErrorAs(svc.AddPattern(ctx, "(bad)", "mod1"), &ve)

	// nothing persisted on validation failure
	entries, err := svc.Store.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Empty(entries)
}

func TestServiceWhitelistBypass(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	require.NoError(t, svc.AddPattern(ctx, "spam", "mod1"))
	require.NoError(t, svc.AddWhitelist(ctx, "u-trusted", whitelist.KindUser, "mod1"))

	// whitelisted traffic skips censoring and grouping entirely
	out, modified := svc.ProcessMessage(ctx, chatMsg("m1", "c1", "u-trusted", "spam spam"), nil)
	assert.False(modified)
	assert.Empty(out)
	_, err := svc.Engine.GroupStats("m1")
	assert.ErrorIs(err, ErrGroupExpired)

	require.NoError(t, svc.RemoveWhitelist(ctx, "u-trusted", whitelist.KindUser))
	_, modified = svc.ProcessMessage(ctx, chatMsg("m2", "c1", "u-trusted", "spam spam"), nil)
	assert.True(modified)
}

func TestServiceThresholdWriteThrough(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, actuator := serviceFixture(t)

	require.NoError(t, svc.SetThreshold(ctx, group.Threshold{
		Action: group.ActionDelete, MessageCount: 2, SetBy: "mod1",
	}))

	svc.ProcessMessage(ctx, chatMsg("m1", "c1", "u1", "same text"), nil)
	svc.ProcessMessage(ctx, chatMsg("m2", "c1", "u2", "same text"), nil)
	assert.NotEmpty(actuator.DeleteCalls())

	// unknown action kinds never reach the store
	var iae *InvalidActionError
	assert.ErrorAs(svc.SetThreshold(ctx, group.Threshold{Action: "explode"}), &iae)

	require.NoError(t, svc.ClearThreshold(ctx, group.ActionDelete))
	before := len(actuator.DeleteCalls())
	svc.ProcessMessage(ctx, chatMsg("m3", "c1", "u1", "other text"), nil)
	svc.ProcessMessage(ctx, chatMsg("m4", "c1", "u2", "other text"), nil)
	assert.Len(actuator.DeleteCalls(), before)
}
