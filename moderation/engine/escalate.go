package engine

import (
	"context"
	"time"

	"github.com/harborchat/harbor/moderation/group"
)

const (
	jailReason = "automated: repeated message spam"
	banReason  = "automated: repeated message spam across channels"
)

// escalate runs the threshold state machine against a group after a new
// occurrence, then applies the side effects of whatever is active.
func (e *Engine) escalate(ctx context.Context, g *group.Group) {
	now := time.Now()
	total := g.Total()
	channels := g.DistinctChannels()

	for _, th := range e.Thresholds() {
		if !th.Action.Valid() {
			e.logger.Warn("skipping threshold with unknown action", "action", th.Action)
			continue
		}
		if g.Action(th.Action).Active {
			continue
		}
		hit := (th.MessageCount > 0 && total >= th.MessageCount) ||
			(th.ChannelCount > 0 && channels >= th.ChannelCount)
		if !hit {
			continue
		}
		// automatic claims record even under the ignore veto (audit trail);
		// the veto bites when effects run
		if err := g.Claim(th.Action, e.cfg.SystemActorID, th.Extra, false, now); err == nil {
			actionTriggeredCount.WithLabelValues(string(th.Action), "auto").Inc()
			e.logger.Info("threshold reached", "groupID", g.ID, "action", th.Action,
				"total", total, "channels", channels)
		}
	}

	// notify rides along whenever any enforcement action is active
	if !g.Action(group.ActionNotify).Active && e.anyEnforcementActive(g) {
		if err := g.Claim(group.ActionNotify, e.cfg.SystemActorID, 0, false, now); err == nil {
			actionTriggeredCount.WithLabelValues(string(group.ActionNotify), "auto").Inc()
		}
	}

	e.applyEffects(ctx, g)
}

func (e *Engine) anyEnforcementActive(g *group.Group) bool {
	for _, kind := range []group.ActionKind{group.ActionDelete, group.ActionJail, group.ActionBan} {
		if g.Action(kind).Active {
			return true
		}
	}
	return false
}

// applyEffects executes the side effects of every active action. Effects
// are re-applied on each occurrence while the action stays active, so
// messages and senders that arrive after escalation get swept too. Each
// actuator failure is logged and skipped; the batch always finishes. The
// whole batch runs under a bounded timeout so ingestion never blocks on a
// slow collaborator.
func (e *Engine) applyEffects(ctx context.Context, g *group.Group) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SideEffectTimeout)
	defer cancel()

	if !g.Ignored() {
		e.applyDelete(ctx, g)
		e.applyJail(ctx, g)
		e.applyBan(ctx, g)
	}

	if g.Action(group.ActionNotify).Active && e.notifier != nil {
		if err := e.notifier.PostOrUpdateStatus(ctx, g.ID, g.Stats()); err != nil {
			e.logger.Error("status notification failed", "groupID", g.ID, "err", err)
		}
	}
}

func (e *Engine) applyDelete(ctx context.Context, g *group.Group) {
	if !g.Action(group.ActionDelete).Active {
		return
	}
	for channelID, ids := range g.TakePendingMessages() {
		if err := e.actuator.DeleteMessages(ctx, channelID, ids); err != nil {
			actuatorErrorCount.WithLabelValues("delete").Inc()
			e.logger.Error("bulk delete failed",
				"err", &ActuatorError{Op: "delete", Subject: channelID, Err: err},
				"groupID", g.ID, "count", len(ids))
		}
	}
}

func (e *Engine) applyJail(ctx context.Context, g *group.Group) {
	rec := g.Action(group.ActionJail)
	if !rec.Active {
		return
	}
	duration := time.Duration(rec.Extra) * time.Second
	for _, m := range g.ConfineTargets() {
		if err := e.actuator.ConfineMember(ctx, m.ID, jailReason, duration); err != nil {
			actuatorErrorCount.WithLabelValues("confine").Inc()
			e.logger.Error("confinement failed",
				"err", &ActuatorError{Op: "confine", Subject: m.ID, Err: err},
				"groupID", g.ID)
			continue
		}
		g.MarkConfined(m.ID)
	}
}

func (e *Engine) applyBan(ctx context.Context, g *group.Group) {
	rec := g.Action(group.ActionBan)
	if !rec.Active {
		return
	}
	for _, m := range g.BanTargets() {
		if err := e.actuator.BanMember(ctx, m.ID, banReason, int(rec.Extra)); err != nil {
			actuatorErrorCount.WithLabelValues("ban").Inc()
			e.logger.Error("ban failed",
				"err", &ActuatorError{Op: "ban", Subject: m.ID, Err: err},
				"groupID", g.ID)
			continue
		}
		g.MarkBanned(m.ID)
	}
}
