package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SeasonMetrics records resolver and clock operation outcomes.
type SeasonMetrics interface {
	RecordOperationAttempt(ctx context.Context, operationName string, season int64)
	RecordOperationDuration(ctx context.Context, operationName string, duration time.Duration)
	RecordOperationSuccess(ctx context.Context, operationName string, season int64)
	RecordOperationFailure(ctx context.Context, operationName string, season int64)
	RecordAuthoritativeFallback(ctx context.Context, reason string)
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
}

// TransitionMetrics records transition phase outcomes.
type TransitionMetrics interface {
	RecordOperationAttempt(ctx context.Context, operationName string, season int64)
	RecordOperationDuration(ctx context.Context, operationName string, duration time.Duration)
	RecordOperationSuccess(ctx context.Context, operationName string, season int64)
	RecordOperationFailure(ctx context.Context, operationName string, season int64)
	RecordPhaseOutcome(ctx context.Context, phase string, outcome string)
	RecordTransitionCompleted(ctx context.Context, fromSeason int64)
}

// LeaderboardMetrics records reconciliation operation outcomes.
type LeaderboardMetrics interface {
	RecordOperationAttempt(ctx context.Context, operationName string, season int64)
	RecordOperationDuration(ctx context.Context, operationName string, duration time.Duration)
	RecordOperationSuccess(ctx context.Context, operationName string, season int64)
	RecordOperationFailure(ctx context.Context, operationName string, season int64)
	RecordBatchSize(ctx context.Context, operationName string, size int)
}

// EventBusMetrics records publish and receive counts per topic.
type EventBusMetrics interface {
	RecordMessagePublished(ctx context.Context, topic string)
	RecordPublishFailure(ctx context.Context, topic string)
	RecordMessageReceived(ctx context.Context, topic string)
}

// PrometheusMetrics bundles the per-module Prometheus implementations backed
// by one registry.
type PrometheusMetrics struct {
	Season      SeasonMetrics
	Transition  TransitionMetrics
	Leaderboard LeaderboardMetrics
	EventBus    EventBusMetrics
}

// NewPrometheusMetrics registers all engine collectors on reg.
func NewPrometheusMetrics(reg *prometheus.Registry, namespace string) (*PrometheusMetrics, error) {
	shared := newOperationMetrics(reg, namespace)

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authoritative_fallbacks_total",
		Help:      "Silent fallbacks from the authoritative season source to the calculated clock.",
	}, []string{"reason"})

	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "season_state_cache_total",
		Help:      "Season state cache lookups by result.",
	}, []string{"result"})

	phases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_phase_outcomes_total",
		Help:      "Transition phase executions by phase and outcome.",
	}, []string{"phase", "outcome"})

	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_completed_total",
		Help:      "Season transitions that reached transition_complete.",
	})

	batchSizes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "leaderboard_batch_size",
		Help:      "Entries written per leaderboard batch upsert.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"operation"})

	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eventbus_messages_published_total",
		Help:      "Messages published to the event bus by topic.",
	}, []string{"topic"})

	publishFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eventbus_publish_failures_total",
		Help:      "Failed event bus publishes by topic.",
	}, []string{"topic"})

	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eventbus_messages_received_total",
		Help:      "Messages received from the event bus by topic.",
	}, []string{"topic"})

	for _, c := range []prometheus.Collector{fallbacks, cache, phases, completed, batchSizes, published, publishFailures, received} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PrometheusMetrics{
		Season: &prometheusSeasonMetrics{
			operationMetrics: shared.with("season"),
			fallbacks:        fallbacks,
			cache:            cache,
		},
		Transition: &prometheusTransitionMetrics{
			operationMetrics: shared.with("transition"),
			phases:           phases,
			completed:        completed,
		},
		Leaderboard: &prometheusLeaderboardMetrics{
			operationMetrics: shared.with("leaderboard"),
			batchSizes:       batchSizes,
		},
		EventBus: &prometheusEventBusMetrics{
			published:       published,
			publishFailures: publishFailures,
			received:        received,
		},
	}, nil
}

// operationMetrics is the shared attempt/success/failure/duration collector
// set, labeled by module and operation. Season numbers stay out of label sets
// to keep cardinality bounded.
type operationMetrics struct {
	module    string
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func newOperationMetrics(reg *prometheus.Registry, namespace string) *operationMetrics {
	m := &operationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operation attempts.",
		}, []string{"module", "operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_successes_total",
			Help:      "Service operations that returned a success result.",
		}, []string{"module", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that errored or panicked.",
		}, []string{"module", "operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module", "operation"}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations)
	return m
}

func (m *operationMetrics) with(module string) operationMetrics {
	c := *m
	c.module = module
	return c
}

func (m operationMetrics) RecordOperationAttempt(_ context.Context, operationName string, _ int64) {
	m.attempts.WithLabelValues(m.module, operationName).Inc()
}

func (m operationMetrics) RecordOperationDuration(_ context.Context, operationName string, d time.Duration) {
	m.durations.WithLabelValues(m.module, operationName).Observe(d.Seconds())
}

func (m operationMetrics) RecordOperationSuccess(_ context.Context, operationName string, _ int64) {
	m.successes.WithLabelValues(m.module, operationName).Inc()
}

func (m operationMetrics) RecordOperationFailure(_ context.Context, operationName string, _ int64) {
	m.failures.WithLabelValues(m.module, operationName).Inc()
}

type prometheusSeasonMetrics struct {
	operationMetrics
	fallbacks *prometheus.CounterVec
	cache     *prometheus.CounterVec
}

func (m *prometheusSeasonMetrics) RecordAuthoritativeFallback(_ context.Context, reason string) {
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *prometheusSeasonMetrics) RecordCacheHit(_ context.Context) {
	m.cache.WithLabelValues("hit").Inc()
}

func (m *prometheusSeasonMetrics) RecordCacheMiss(_ context.Context) {
	m.cache.WithLabelValues("miss").Inc()
}

type prometheusTransitionMetrics struct {
	operationMetrics
	phases    *prometheus.CounterVec
	completed prometheus.Counter
}

func (m *prometheusTransitionMetrics) RecordPhaseOutcome(_ context.Context, phase string, outcome string) {
	m.phases.WithLabelValues(phase, outcome).Inc()
}

func (m *prometheusTransitionMetrics) RecordTransitionCompleted(_ context.Context, _ int64) {
	m.completed.Inc()
}

type prometheusLeaderboardMetrics struct {
	operationMetrics
	batchSizes *prometheus.HistogramVec
}

func (m *prometheusLeaderboardMetrics) RecordBatchSize(_ context.Context, operationName string, size int) {
	m.batchSizes.WithLabelValues(operationName).Observe(float64(size))
}

type prometheusEventBusMetrics struct {
	published       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	received        *prometheus.CounterVec
}

func (m *prometheusEventBusMetrics) RecordMessagePublished(_ context.Context, topic string) {
	m.published.WithLabelValues(topic).Inc()
}

func (m *prometheusEventBusMetrics) RecordPublishFailure(_ context.Context, topic string) {
	m.publishFailures.WithLabelValues(topic).Inc()
}

func (m *prometheusEventBusMetrics) RecordMessageReceived(_ context.Context, topic string) {
	m.received.WithLabelValues(topic).Inc()
}
