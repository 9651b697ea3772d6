package seasonservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
	"github.com/Permavault-Club/season-engine/internal/alerts"
	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/eventbus"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/results"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// SeasonService implements the Service interface.
type SeasonService struct {
	repo     seasondb.Repository
	resolver *StateResolver
	clock    seasondomain.Clock
	store    PermanentStore
	tally    VoteTally
	lock     PhaseLock
	eventBus eventbus.EventBus
	helpers  utils.Helpers
	notifier alerts.Notifier
	now      func() time.Time
	logger   *slog.Logger
	metrics  observability.TransitionMetrics
	tracer   trace.Tracer
	db       *bun.DB
}

// NewSeasonService creates a new SeasonService. lock and eventBus may be nil
// in tests; a nil now falls back to time.Now.
func NewSeasonService(
	repo seasondb.Repository,
	resolver *StateResolver,
	clock seasondomain.Clock,
	store PermanentStore,
	tally VoteTally,
	lock PhaseLock,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
	notifier alerts.Notifier,
	now func() time.Time,
	logger *slog.Logger,
	metrics observability.TransitionMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *SeasonService {
	if now == nil {
		now = time.Now
	}
	return &SeasonService{
		repo:     repo,
		resolver: resolver,
		clock:    clock,
		store:    store,
		tally:    tally,
		lock:     lock,
		eventBus: eventBus,
		helpers:  helpers,
		notifier: notifier,
		now:      now,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SeasonService,
	ctx context.Context,
	operationName string,
	season int64,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.Int64("season", season),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, season)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.SeasonNumber("season", season),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.SeasonNumber("season", season),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, season)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.SeasonNumber("season", season),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, season)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.SeasonNumber("season", season),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.SeasonNumber("season", season),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, season)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func (s *SeasonService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
