package group

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppendTallies(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()

	g := New("m1", "spamkey", "spam!", time.Minute, now)
	g.Append("c1", "m1", MemberRef{ID: "u1", Manageable: true}, now)
	g.Append("c1", "m2", MemberRef{ID: "u1", Manageable: true}, now)
	g.Append("c2", "m3", MemberRef{ID: "u2", Manageable: true}, now)

	assert.Equal(3, g.Total())
	assert.Equal(2, g.DistinctChannels())

	snap := g.Stats()
	assert.Equal(2, snap.ChannelCounts["c1"])
	assert.Equal(1, snap.ChannelCounts["c2"])
	assert.Equal(2, snap.SenderCounts["u1"])
	assert.Equal(1, snap.SenderCounts["u2"])
}

func TestClaimFirstWriterWins(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	g := New("m1", "k", "s", time.Minute, now)

	assert.NoError(g.Claim(ActionDelete, "mod1", 0, true, now))
	assert.ErrorIs(g.Claim(ActionDelete, "mod2", 0, true, now), ErrActionClaimed)
	assert.ErrorIs(g.Claim(ActionDelete, "system", 0, false, now), ErrActionClaimed)

	rec := g.Action(ActionDelete)
	assert.True(rec.Active)
	assert.Equal("mod1", rec.ActorID)
}

func TestIgnoreVeto(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	g := New("m1", "k", "s", time.Minute, now)

	assert.NoError(g.Claim(ActionIgnore, "mod1", 0, true, now))

	// manual claims of suppressible actions are rejected outright
	assert.ErrorIs(g.Claim(ActionBan, "mod2", 0, true, now), ErrActionVetoed)
	assert.False(g.Action(ActionBan).Active)

	// automatic claims still record for audit
	assert.NoError(g.Claim(ActionDelete, "system", 0, false, now))
	assert.True(g.Action(ActionDelete).Active)
	assert.True(g.Ignored())

	// notify is not suppressible
	assert.NoError(g.Claim(ActionNotify, "mod2", 0, true, now))
}

func TestPendingMessageDrain(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	g := New("m1", "k", "s", time.Minute, now)
	g.Append("c1", "m1", MemberRef{ID: "u1"}, now)
	g.Append("c1", "m2", MemberRef{ID: "u1"}, now)
	g.Append("c2", "m3", MemberRef{ID: "u2"}, now)

	pend := g.TakePendingMessages()
	assert.Len(pend, 2)
	assert.Equal([]string{"m1", "m2"}, pend["c1"])
	assert.Equal([]string{"m3"}, pend["c2"])

	// drained; counts unaffected
	assert.Empty(g.TakePendingMessages())
	assert.Equal(3, g.Total())

	g.Append("c1", "m4", MemberRef{ID: "u1"}, now)
	pend = g.TakePendingMessages()
	assert.Equal([]string{"m4"}, pend["c1"])
}

func TestSweepTargets(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	g := New("m1", "k", "s", time.Minute, now)
	g.Append("c1", "m1", MemberRef{ID: "u1", Manageable: true}, now)
	g.Append("c1", "m2", MemberRef{ID: "u2", Manageable: true, Privileged: true}, now)
	g.Append("c1", "m3", MemberRef{ID: "u3", Manageable: false}, now)

	// privileged and unmanageable senders are never targets
	targets := g.ConfineTargets()
	assert.Len(targets, 1)
	assert.Equal("u1", targets[0].ID)

	g.MarkConfined("u1")
	assert.Empty(g.ConfineTargets())

	// ban tracking is independent of confinement
	assert.Len(g.BanTargets(), 1)
	g.MarkBanned("u1")
	assert.Empty(g.BanTargets())
}

func TestExpiryAndDemotion(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	g := New("m1", "k", "s", time.Minute, now)

	assert.False(g.Expired(now.Add(30*time.Second)))
	assert.True(g.Expired(now.Add(2*time.Minute)))

	g.Demote(time.Hour)
	assert.False(g.Active)
	assert.False(g.Expired(now.Add(2*time.Minute)))
	assert.True(g.Expired(now.Add(2*time.Hour)))
}
