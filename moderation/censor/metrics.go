package censor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rewriteCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_censor_rewrites",
	Help: "Number of messages rewritten by the censoring transform",
})

var matcherReloadCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_censor_reloads",
	Help: "Number of blacklist matcher reloads, by outcome",
}, []string{"outcome"})
