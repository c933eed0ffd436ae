// Package countstore tracks rolling audit counters for the moderation
// pipeline: messages ingested per guild, censored rewrites, distinct channels
// hit per content key, and so on. Counters are bucketed per hour, per day,
// and all-time.
package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	Increment(ctx context.Context, name, val string) error
	GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error)
	IncrementDistinct(ctx context.Context, name, bucket, val string) error
}

func bucketKey(name, val, period string) string {
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s|%s", name, val)
	case PeriodDay:
		return fmt.Sprintf("%s|%s|%s", name, val, time.Now().UTC().Format(time.DateOnly))
	case PeriodHour:
		return fmt.Sprintf("%s|%s|%s", name, val, time.Now().UTC().Format("2006-01-02T15"))
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s|%s", name, val)
	}
}
