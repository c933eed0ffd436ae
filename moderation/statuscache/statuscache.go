// Package statuscache remembers which status message was posted for each
// spam group, so the notification sink can edit in place instead of posting
// duplicates.
package statuscache

import "context"

// StatusRef locates a previously posted status message.
type StatusRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Cache maps group id to the ref of its live status message. A miss returns
// a zero ref and no error; the sink then posts fresh.
type Cache interface {
	GetRef(ctx context.Context, groupID string) (StatusRef, error)
	SetRef(ctx context.Context, groupID string, ref StatusRef) error
	PurgeRef(ctx context.Context, groupID string) error
}
