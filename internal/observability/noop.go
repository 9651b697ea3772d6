package observability

import (
	"context"
	"time"
)

// NoopSeasonMetrics is a SeasonMetrics that records nothing. Used in tests.
type NoopSeasonMetrics struct{}

func (NoopSeasonMetrics) RecordOperationAttempt(context.Context, string, int64)          {}
func (NoopSeasonMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoopSeasonMetrics) RecordOperationSuccess(context.Context, string, int64)          {}
func (NoopSeasonMetrics) RecordOperationFailure(context.Context, string, int64)          {}
func (NoopSeasonMetrics) RecordAuthoritativeFallback(context.Context, string)            {}
func (NoopSeasonMetrics) RecordCacheHit(context.Context)                                 {}
func (NoopSeasonMetrics) RecordCacheMiss(context.Context)                                {}

// NoopTransitionMetrics is a TransitionMetrics that records nothing.
type NoopTransitionMetrics struct{}

func (NoopTransitionMetrics) RecordOperationAttempt(context.Context, string, int64)          {}
func (NoopTransitionMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoopTransitionMetrics) RecordOperationSuccess(context.Context, string, int64)          {}
func (NoopTransitionMetrics) RecordOperationFailure(context.Context, string, int64)          {}
func (NoopTransitionMetrics) RecordPhaseOutcome(context.Context, string, string)             {}
func (NoopTransitionMetrics) RecordTransitionCompleted(context.Context, int64)               {}

// NoopLeaderboardMetrics is a LeaderboardMetrics that records nothing.
type NoopLeaderboardMetrics struct{}

func (NoopLeaderboardMetrics) RecordOperationAttempt(context.Context, string, int64)          {}
func (NoopLeaderboardMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoopLeaderboardMetrics) RecordOperationSuccess(context.Context, string, int64)          {}
func (NoopLeaderboardMetrics) RecordOperationFailure(context.Context, string, int64)          {}
func (NoopLeaderboardMetrics) RecordBatchSize(context.Context, string, int)                   {}

// NoopEventBusMetrics is an EventBusMetrics that records nothing.
type NoopEventBusMetrics struct{}

func (NoopEventBusMetrics) RecordMessagePublished(context.Context, string) {}
func (NoopEventBusMetrics) RecordPublishFailure(context.Context, string)   {}
func (NoopEventBusMetrics) RecordMessageReceived(context.Context, string)  {}
