package engine

import (
	"context"
	"sync"
	"time"

	"github.com/harborchat/harbor/moderation/group"
)

// RecordingActuator captures side-effect calls for assertions. Individual
// operations can be made to fail to exercise the skip-and-continue paths.
type RecordingActuator struct {
	mu sync.Mutex

	Deletes      []DeleteCall
	Confinements []ConfineCall
	Bans         []BanCall

	FailOps map[string]error
}

type DeleteCall struct {
	ChannelID  string
	MessageIDs []string
}

type ConfineCall struct {
	MemberID string
	Reason   string
	Duration time.Duration
}

type BanCall struct {
	MemberID    string
	Reason      string
	HistoryDays int
}

func NewRecordingActuator() *RecordingActuator {
	return &RecordingActuator{FailOps: make(map[string]error)}
}

var _ Actuator = (*RecordingActuator)(nil)

func (a *RecordingActuator) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.FailOps["delete"]; err != nil {
		return err
	}
	a.Deletes = append(a.Deletes, DeleteCall{ChannelID: channelID, MessageIDs: messageIDs})
	return nil
}

func (a *RecordingActuator) ConfineMember(ctx context.Context, memberID, reason string, duration time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.FailOps["confine"]; err != nil {
		return err
	}
	a.Confinements = append(a.Confinements, ConfineCall{MemberID: memberID, Reason: reason, Duration: duration})
	return nil
}

func (a *RecordingActuator) BanMember(ctx context.Context, memberID, reason string, historyDeletionDays int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.FailOps["ban"]; err != nil {
		return err
	}
	a.Bans = append(a.Bans, BanCall{MemberID: memberID, Reason: reason, HistoryDays: historyDeletionDays})
	return nil
}

func (a *RecordingActuator) DeleteCalls() []DeleteCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]DeleteCall, len(a.Deletes))
	copy(out, a.Deletes)
	return out
}

// RecordingNotifier captures status updates per group.
type RecordingNotifier struct {
	mu       sync.Mutex
	Statuses map[string][]group.Snapshot
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{Statuses: make(map[string][]group.Snapshot)}
}

var _ Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) PostOrUpdateStatus(ctx context.Context, groupID string, snap group.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Statuses[groupID] = append(n.Statuses[groupID], snap)
	return nil
}

func (n *RecordingNotifier) Updates(groupID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Statuses[groupID])
}

// staticThresholds is a fixed ThresholdSource for tests.
type staticThresholds struct {
	ths []group.Threshold
}

func (s *staticThresholds) ListThresholds(ctx context.Context) ([]group.Threshold, error) {
	return s.ths, nil
}

// EngineTestFixture builds an engine wired to recording collaborators and
// the given thresholds, already reloaded.
func EngineTestFixture(cfg Config, ths ...group.Threshold) (*Engine, *RecordingActuator, *RecordingNotifier) {
	actuator := NewRecordingActuator()
	notifier := NewRecordingNotifier()
	eng, err := New(nil, cfg, &staticThresholds{ths: ths}, actuator, notifier, nil)
	if err != nil {
		panic(err)
	}
	if err := eng.ReloadThresholds(context.Background()); err != nil {
		panic(err)
	}
	return eng, actuator, notifier
}
