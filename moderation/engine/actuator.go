package engine

import (
	"context"
	"fmt"
	"time"
)

// Actuator is the moderation side-effect surface supplied by the host (the
// chat platform client). Each call may fail independently; the engine logs
// failures and keeps processing the rest of the batch.
type Actuator interface {
	// DeleteMessages bulk-deletes the given message ids from one channel.
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error
	// ConfineMember places a member in temporary confinement.
	ConfineMember(ctx context.Context, memberID, reason string, duration time.Duration) error
	// BanMember bans a member, deleting their recent message history.
	BanMember(ctx context.Context, memberID, reason string, historyDeletionDays int) error
}

// ActuatorError wraps a single failed side-effect call with enough context
// for the operator log.
type ActuatorError struct {
	Op      string
	Subject string
	Err     error
}

func (e *ActuatorError) Error() string {
	return fmt.Sprintf("actuator %s on %s: %v", e.Op, e.Subject, e.Err)
}

func (e *ActuatorError) Unwrap() error { return e.Err }
