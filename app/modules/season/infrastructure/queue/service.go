// Package seasonqueue drives the transition orchestrator off a River
// periodic job. The database-backed queue gives the tick durability and
// single-flight semantics inside one process; the cross-process guard is the
// orchestrator's phase lock.
package seasonqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/Permavault-Club/season-engine/internal/attr"
)

const (
	tickQueue = "season"

	// Failed ticks retry on River's backoff, but a fresh tick arrives every
	// minute anyway, so a handful of attempts is plenty.
	tickMaxAttempts = 3
)

// QueueService is the lifecycle surface of the tick queue.
type QueueService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	RecentTicks(ctx context.Context, limit int) ([]JobInfo, error)
}

var _ QueueService = (*Service)(nil)

// Service owns the River client and its pgx pool.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	db     *bun.DB
	logger *slog.Logger
}

// NewService builds the queue around a periodic tick job. River needs its own
// pgx pool; the bun handle is only used for read-side job queries.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, trigger TransitionTrigger) (*Service, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewTransitionTickWorker(logger, trigger))

	tick := river.NewPeriodicJob(
		river.PeriodicInterval(time.Minute),
		func() (river.JobArgs, *river.InsertOpts) {
			return TransitionTickJob{}, &river.InsertOpts{
				Queue:       tickQueue,
				MaxAttempts: tickMaxAttempts,
			}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			// One worker keeps concurrent ticks serialized in-process.
			tickQueue: {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: []*river.PeriodicJob{tick},
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{
		client: riverClient,
		pool:   pool,
		db:     bunDB,
		logger: logger,
	}, nil
}

// Start begins executing tick jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Season tick queue started")
	return nil
}

// Stop drains in-flight jobs and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Season tick queue stopped")
	return nil
}

// HealthCheck verifies the queue tables are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}

// RecentTicks lists the latest tick jobs, newest first, for operators
// checking whether the rollover schedule is firing.
func (s *Service) RecentTicks(ctx context.Context, limit int) ([]JobInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	type riverJobRow struct {
		ID          int64      `bun:"id"`
		Kind        string     `bun:"kind"`
		State       string     `bun:"state"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		FinalizedAt *time.Time `bun:"finalized_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var rows []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "finalized_at", "attempt", "max_attempts").
		Where("kind = ?", TransitionTickJob{}.Kind()).
		Order("id DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to query tick jobs", attr.Error(err))
		return nil, fmt.Errorf("failed to query tick jobs: %w", err)
	}

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	infos := make([]JobInfo, len(rows))
	for i, row := range rows {
		infos[i] = JobInfo{
			ID:          row.ID,
			Kind:        row.Kind,
			State:       row.State,
			ScheduledAt: formatTime(row.ScheduledAt),
			FinalizedAt: formatTime(row.FinalizedAt),
			Attempt:     int(row.Attempt),
			MaxAttempts: int(row.MaxAttempts),
		}
	}
	return infos, nil
}
