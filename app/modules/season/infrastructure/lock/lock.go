// Package seasonlock holds the best-effort advisory lock the transition
// orchestrator takes around one phase slot. The backing KV bucket carries a
// short TTL, so a crashed holder expires instead of wedging the slot.
package seasonlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

// BucketName is the KV bucket phase locks live in.
const BucketName = "season_transition_locks"

// BucketTTL bounds how long a crashed holder can keep a phase slot. One
// sub-window is fifteen minutes, so the next phase never inherits a stale
// lock.
const BucketTTL = 15 * time.Minute

// PhaseLock implements seasonservice.PhaseLock on a JetStream KV bucket.
// Create fails when the key exists, which is the whole locking protocol.
type PhaseLock struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// NewPhaseLock creates a PhaseLock on the given bucket.
func NewPhaseLock(kv jetstream.KeyValue, logger *slog.Logger) *PhaseLock {
	return &PhaseLock{kv: kv, logger: logger}
}

type lockClaim struct {
	AcquiredAt time.Time `json:"acquiredAt"`
}

func lockKey(fromSeason, toSeason int64, phase seasondomain.TransitionPhase) string {
	return fmt.Sprintf("transition.%d.%d.%s", fromSeason, toSeason, phase)
}

// Acquire claims the slot. It reports false without error when another
// holder already has it.
func (l *PhaseLock) Acquire(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error) {
	data, _ := json.Marshal(lockClaim{AcquiredAt: time.Now().UTC()})

	_, err := l.kv.Create(ctx, lockKey(fromSeason, toSeason, phase), data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, nil
		}
		return false, fmt.Errorf("seasonlock.Acquire: %w", err)
	}
	return true, nil
}

// Release frees the slot. Failures are only logged: the bucket TTL reclaims
// the key anyway.
func (l *PhaseLock) Release(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) {
	key := lockKey(fromSeason, toSeason, phase)
	if err := l.kv.Delete(ctx, key); err != nil {
		l.logger.WarnContext(ctx, "Failed to release phase lock",
			attr.String("key", key),
			attr.Error(err),
		)
	}
}

var _ seasonservice.PhaseLock = (*PhaseLock)(nil)
