package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/statuscache"
)

// Notifier posts or refreshes the rolling status message for a spam group.
// Implementations must be idempotent per group id: later calls edit the
// earlier message when it still exists.
type Notifier interface {
	PostOrUpdateStatus(ctx context.Context, groupID string, snap group.Snapshot) error
}

// RenderStatus formats the status body: content sample, channel tally,
// sender tally, and the actions-taken audit line.
func RenderStatus(snap group.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spam group `%s`: %d messages\n", snap.ID, snap.TotalCount)
	fmt.Fprintf(&b, "Sample: %s\n", snap.Sample)

	fmt.Fprintf(&b, "Channels: %s\n", formatTally(snap.ChannelCounts))
	fmt.Fprintf(&b, "Senders: %s\n", formatTally(snap.SenderCounts))

	var taken []string
	for _, kind := range group.AllActions {
		rec, ok := snap.Actions[kind]
		if !ok || !rec.Active {
			continue
		}
		taken = append(taken, fmt.Sprintf("%s (by %s)", kind, rec.ActorID))
	}
	if len(taken) > 0 {
		fmt.Fprintf(&b, "Actions: %s\n", strings.Join(taken, ", "))
	}
	return b.String()
}

func formatTally(counts map[string]int) string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s×%d", id, counts[id]))
	}
	return strings.Join(parts, ", ")
}

// WebhookNotifier delivers status updates as JSON to an incoming webhook.
// The ref cache gives it the post-or-update behavior: a known ref is sent
// along so the receiver edits in place, and the ref from the response is
// remembered for next time.
type WebhookNotifier struct {
	URL    string
	Refs   statuscache.Cache
	Client *http.Client
}

type webhookBody struct {
	GroupID   string `json:"group_id"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Text      string `json:"text"`
}

type webhookResponse struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

var _ Notifier = (*WebhookNotifier)(nil)

func (n *WebhookNotifier) PostOrUpdateStatus(ctx context.Context, groupID string, snap group.Snapshot) error {
	ref, err := n.Refs.GetRef(ctx, groupID)
	if err != nil {
		// a ref cache miss only costs a duplicate post
		ref = statuscache.StatusRef{}
	}

	body, err := json.Marshal(webhookBody{
		GroupID:   groupID,
		ChannelID: ref.ChannelID,
		MessageID: ref.MessageID,
		Text:      RenderStatus(snap),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status webhook POST failed. status=%d", resp.StatusCode)
	}

	var wr webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return err
	}
	if wr.MessageID != "" {
		return n.Refs.SetRef(ctx, groupID, statuscache.StatusRef{
			ChannelID: wr.ChannelID,
			MessageID: wr.MessageID,
		})
	}
	return nil
}
