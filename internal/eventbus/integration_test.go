package eventbus_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	natscontainer "github.com/testcontainers/testcontainers-go/modules/nats"
	"go.opentelemetry.io/otel/trace/noop"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	"github.com/Permavault-Club/season-engine/internal/eventbus"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

func TestEventBusRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := natscontainer.Run(ctx, "nats:2.10-alpine")
	if err != nil {
		t.Fatalf("failed to start NATS container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate NATS container: %v", err)
		}
	})

	natsURL, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get NATS connection string: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := eventbus.NewEventBus(
		ctx,
		natsURL,
		logger,
		"season-engine-test",
		"",
		observability.NoopEventBusMetrics{},
		noop.NewTracerProvider().Tracer("test"),
	)
	if err != nil {
		t.Fatalf("failed to build event bus: %v", err)
	}
	t.Cleanup(func() { bus.Close() })

	subCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	messages, err := bus.Subscribe(subCtx, leaderboardevents.VoteRecordedSubject)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	helpers := utils.NewHelpers(logger)
	payload := leaderboardevents.VoteRecordedPayload{
		EntityID:   "content-abc",
		CycleID:    3,
		TotalVotes: "250",
	}
	msg, err := helpers.CreateNewMessage(payload, leaderboardevents.VoteRecordedSubject)
	if err != nil {
		t.Fatalf("failed to build message: %v", err)
	}
	if err := bus.Publish(leaderboardevents.VoteRecordedSubject, msg); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case received := <-messages:
		var got leaderboardevents.VoteRecordedPayload
		if err := helpers.UnmarshalPayload(received, &got); err != nil {
			t.Fatalf("failed to unmarshal received payload: %v", err)
		}
		received.Ack()

		if got.EntityID != payload.EntityID || got.CycleID != payload.CycleID || got.TotalVotes != payload.TotalVotes {
			t.Errorf("payload mismatch: got %+v, want %+v", got, payload)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("timed out waiting for the published message")
	}
}
