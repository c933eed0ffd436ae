// Package group implements the rolling aggregate of near-duplicate messages
// tracked for spam detection, including its per-action claim records.
package group

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ActionKind enumerates the moderation actions a group can carry. Modeled as
// an enum-keyed record map rather than loose booleans so switches over kinds
// stay exhaustive.
type ActionKind string

const (
	ActionNotify ActionKind = "notify"
	ActionDelete ActionKind = "delete"
	ActionJail   ActionKind = "jail"
	ActionBan    ActionKind = "ban"
	ActionIgnore ActionKind = "ignore"
)

// AllActions lists every kind in presentation order.
var AllActions = []ActionKind{ActionNotify, ActionDelete, ActionJail, ActionBan, ActionIgnore}

func (k ActionKind) Valid() bool {
	switch k {
	case ActionNotify, ActionDelete, ActionJail, ActionBan, ActionIgnore:
		return true
	}
	return false
}

// Suppressible reports whether the ignore veto applies to this kind.
func (k ActionKind) Suppressible() bool {
	switch k {
	case ActionDelete, ActionJail, ActionBan:
		return true
	}
	return false
}

var (
	// ErrActionClaimed rejects a claim when another actor got there first.
	ErrActionClaimed = errors.New("action already claimed")
	// ErrActionVetoed rejects a manual claim against an ignored group.
	ErrActionVetoed = errors.New("action vetoed by ignore")
)

// InvalidActionError reports an action kind outside the known set.
type InvalidActionError struct {
	Kind ActionKind
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("unknown action kind %q", string(e.Kind))
}

// ActionRecord is one claim slot. At most one actor ever claims a record;
// the first write wins and later writes are rejected.
type ActionRecord struct {
	Active  bool
	ActorID string
	TakenAt time.Time
	// jail duration in seconds or ban history-deletion window in days
	Extra int64
}

// Threshold is the configured trip point for one action kind. At most one
// threshold per kind is active at a time.
type Threshold struct {
	Action       ActionKind
	MessageCount int
	ChannelCount int
	Extra        int64
	SetBy        string
}

// MemberRef carries the sender attributes side effects need: whether the
// host can act on the member at all, and whether the member is privileged
// (moderators are never jailed or banned by automation).
type MemberRef struct {
	ID         string
	Manageable bool
	Privileged bool
}

// ChannelTally tracks per-channel repetition plus the message ids queued for
// bulk deletion should the delete action fire.
type ChannelTally struct {
	Count             int
	PendingMessageIDs []string
}

// SenderTally tracks per-sender repetition and which side effects already
// reached the member.
type SenderTally struct {
	Member   MemberRef
	Count    int
	Confined bool
	Banned   bool
}

// Group is a bounded-lifetime aggregate of structurally-identical messages.
// Identity is the id of the first message seen. All mutation goes through
// methods holding the group mutex; the grouping engine and the expiration
// sweep share that discipline.
type Group struct {
	mu sync.Mutex

	ID     string
	Key    string
	Sample string

	CreatedAt     time.Time
	LastUpdatedAt time.Time
	ExpireAfter   time.Duration
	// true while the group sits in the circulating window
	Active bool

	TotalCount int
	channels   map[string]*ChannelTally
	senders    map[string]*SenderTally
	actions    map[ActionKind]*ActionRecord
}

// New starts a group from its triggering message.
func New(id, key, sample string, window time.Duration, now time.Time) *Group {
	return &Group{
		ID:            id,
		Key:           key,
		Sample:        sample,
		CreatedAt:     now,
		LastUpdatedAt: now,
		ExpireAfter:   window,
		Active:        true,
		channels:      make(map[string]*ChannelTally),
		senders:       make(map[string]*SenderTally),
		actions:       make(map[ActionKind]*ActionRecord),
	}
}

// Append records one more occurrence of the group's content.
func (g *Group) Append(channelID, messageID string, member MemberRef, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.TotalCount++
	g.LastUpdatedAt = now

	ch := g.channels[channelID]
	if ch == nil {
		ch = &ChannelTally{}
		g.channels[channelID] = ch
	}
	ch.Count++
	ch.PendingMessageIDs = append(ch.PendingMessageIDs, messageID)

	snd := g.senders[member.ID]
	if snd == nil {
		snd = &SenderTally{Member: member}
		g.senders[member.ID] = snd
	}
	snd.Count++
	snd.Member = member
}

// Claim activates an action record under one-writer-wins semantics. Manual
// claims are rejected when the record is already claimed by anyone, and, for
// suppressible kinds, when ignore is already active. Automatic claims skip
// records that are already claimed but are still recorded (for audit) when
// ignore is active; the veto suppresses their side effects, not the history.
func (g *Group) Claim(kind ActionKind, actorID string, extra int64, manual bool, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec := g.actions[kind]; rec != nil && rec.Active {
		return ErrActionClaimed
	}
	if manual && kind.Suppressible() {
		if ign := g.actions[ActionIgnore]; ign != nil && ign.Active {
			return ErrActionVetoed
		}
	}
	g.actions[kind] = &ActionRecord{
		Active:  true,
		ActorID: actorID,
		TakenAt: now,
		Extra:   extra,
	}
	return nil
}

// Action returns a copy of the record for kind (zero record when unclaimed).
func (g *Group) Action(kind ActionKind) ActionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec := g.actions[kind]; rec != nil {
		return *rec
	}
	return ActionRecord{}
}

// Ignored reports whether the ignore veto is set.
func (g *Group) Ignored() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec := g.actions[ActionIgnore]
	return rec != nil && rec.Active
}

// HasClaimedAction reports whether any action was ever claimed; eviction
// demotes such groups to the archive instead of discarding them.
func (g *Group) HasClaimedAction() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range g.actions {
		if rec.Active {
			return true
		}
	}
	return false
}

// Demote parks an evicted group in the archive with a longer expiration
// window.
func (g *Group) Demote(archiveWindow time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Active = false
	g.ExpireAfter = archiveWindow
}

// Expired reports whether the group aged out of its window.
func (g *Group) Expired(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.Sub(g.LastUpdatedAt) > g.ExpireAfter
}

// DistinctChannels returns how many channels the content appeared in.
func (g *Group) DistinctChannels() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.channels)
}

// Total returns the total occurrence count.
func (g *Group) Total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.TotalCount
}

// TakePendingMessages drains every channel's pending-delete queue, returning
// only channels with queued ids. Called when the delete effect runs; the
// drained lists are the bulk-delete batches.
func (g *Group) TakePendingMessages() map[string][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string][]string)
	for id, ch := range g.channels {
		if len(ch.PendingMessageIDs) == 0 {
			continue
		}
		out[id] = ch.PendingMessageIDs
		ch.PendingMessageIDs = nil
	}
	return out
}

// sweepEligible returns senders the actuator can act on which have not yet
// received the effect tracked by done.
func (g *Group) sweepEligible(done func(*SenderTally) bool) []MemberRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []MemberRef
	for _, snd := range g.senders {
		if !snd.Member.Manageable || snd.Member.Privileged || done(snd) {
			continue
		}
		out = append(out, snd.Member)
	}
	return out
}

// ConfineTargets lists senders still due for confinement.
func (g *Group) ConfineTargets() []MemberRef {
	return g.sweepEligible(func(s *SenderTally) bool { return s.Confined })
}

// BanTargets lists senders still due for a ban.
func (g *Group) BanTargets() []MemberRef {
	return g.sweepEligible(func(s *SenderTally) bool { return s.Banned })
}

// MarkConfined records a successful confinement.
func (g *Group) MarkConfined(memberID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if snd := g.senders[memberID]; snd != nil {
		snd.Confined = true
	}
}

// MarkBanned records a successful ban.
func (g *Group) MarkBanned(memberID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if snd := g.senders[memberID]; snd != nil {
		snd.Banned = true
	}
}

// Snapshot is the read-only view handed to the notification sink.
type Snapshot struct {
	ID            string
	Sample        string
	TotalCount    int
	ChannelCounts map[string]int
	SenderCounts  map[string]int
	Actions       map[ActionKind]ActionRecord
	CreatedAt     time.Time
	LastUpdatedAt time.Time
	Active        bool
}

// Stats captures the group's current state for rendering.
func (g *Group) Stats() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		ID:            g.ID,
		Sample:        g.Sample,
		TotalCount:    g.TotalCount,
		ChannelCounts: make(map[string]int, len(g.channels)),
		SenderCounts:  make(map[string]int, len(g.senders)),
		Actions:       make(map[ActionKind]ActionRecord, len(g.actions)),
		CreatedAt:     g.CreatedAt,
		LastUpdatedAt: g.LastUpdatedAt,
		Active:        g.Active,
	}
	for id, ch := range g.channels {
		snap.ChannelCounts[id] = ch.Count
	}
	for id, snd := range g.senders {
		snap.SenderCounts[id] = snd.Count
	}
	for kind, rec := range g.actions {
		snap.Actions[kind] = *rec
	}
	return snap
}
