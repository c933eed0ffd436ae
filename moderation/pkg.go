package moderation

import (
	"github.com/harborchat/harbor/moderation/countstore"
	"github.com/harborchat/harbor/moderation/engine"
	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/keyword"
	"github.com/harborchat/harbor/moderation/store"
)

type Engine = engine.Engine
type EngineConfig = engine.Config
type Message = engine.Message
type Actuator = engine.Actuator
type Notifier = engine.Notifier
type WebhookNotifier = engine.WebhookNotifier

type Group = group.Group
type GroupSnapshot = group.Snapshot
type ActionKind = group.ActionKind
type Threshold = group.Threshold
type MemberRef = group.MemberRef

type ValidationError = keyword.ValidationError
type CompileError = keyword.CompileError
type ActuatorError = engine.ActuatorError
type InvalidActionError = group.InvalidActionError

var (
	ActionNotify = group.ActionNotify
	ActionDelete = group.ActionDelete
	ActionJail   = group.ActionJail
	ActionBan    = group.ActionBan
	ActionIgnore = group.ActionIgnore

	ErrActionClaimed = group.ErrActionClaimed
	ErrActionVetoed  = group.ErrActionVetoed
	ErrGroupExpired  = engine.ErrGroupExpired
	ErrNotFound      = store.ErrNotFound
	ErrDuplicate     = store.ErrDuplicate

	PeriodTotal = countstore.PeriodTotal
	PeriodDay   = countstore.PeriodDay
	PeriodHour  = countstore.PeriodHour
)
