package seasonservice

import (
	"testing"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

func cachedState(number int64) seasondomain.SeasonState {
	var state seasondomain.SeasonState
	state.Current.Number = number
	return state
}

func TestStateCache_TTL(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	cache := NewStateCache(30*time.Second, func() time.Time { return now })

	if _, ok := cache.Get(); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Set(cachedState(113))

	got, ok := cache.Get()
	if !ok || got.Current.Number != 113 {
		t.Fatalf("Get() = (%d, %v), want cached season 113", got.Current.Number, ok)
	}

	now = now.Add(29 * time.Second)
	if _, ok := cache.Get(); !ok {
		t.Error("entry should still be fresh inside the TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := cache.Get(); ok {
		t.Error("entry should expire once the TTL has passed")
	}
}

func TestStateCache_Invalidate(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	cache := NewStateCache(time.Minute, func() time.Time { return now })

	cache.Set(cachedState(7))
	cache.Invalidate()

	if _, ok := cache.Get(); ok {
		t.Fatal("invalidated entry should miss before its TTL expires")
	}

	cache.Set(cachedState(8))
	if got, ok := cache.Get(); !ok || got.Current.Number != 8 {
		t.Fatalf("Get() after re-set = (%d, %v), want season 8", got.Current.Number, ok)
	}
}

func TestStateCache_DefaultTTL(t *testing.T) {
	cache := NewStateCache(0, nil)
	if cache.ttl != DefaultStateTTL {
		t.Fatalf("ttl = %v, want %v", cache.ttl, DefaultStateTTL)
	}
}
