package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_messages_processed",
	Help: "Number of messages ingested by the spam grouping engine",
})

var messageProcessErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_message_errors",
	Help: "Number of messages which failed processing",
})

var groupCreatedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_groups_created",
	Help: "Number of new message groups opened",
})

var groupEvictedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_groups_evicted",
	Help: "Number of groups evicted from the circulating window",
}, []string{"outcome"})

var groupExpiredCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_groups_expired",
	Help: "Number of groups dropped by the expiration sweep",
}, []string{"list"})

var actionTriggeredCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_actions_triggered",
	Help: "Number of action claims, by kind and origin",
}, []string{"kind", "origin"})

var actuatorErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_actuator_errors",
	Help: "Number of failed side-effect calls, by operation",
}, []string{"op"})
