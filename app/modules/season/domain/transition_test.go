package seasondomain

import (
	"reflect"
	"testing"
)

func TestAppendPhase(t *testing.T) {
	phases := []TransitionPhase{}

	phases = AppendPhase(phases, TransitionPhasePrepare)
	phases = AppendPhase(phases, TransitionPhaseTally)

	if !HasPhase(phases, TransitionPhasePrepare) || !HasPhase(phases, TransitionPhaseTally) {
		t.Fatalf("expected both phases recorded, got %v", phases)
	}

	// A duplicate trigger inside the same sub-window must not double-count.
	again := AppendPhase(phases, TransitionPhaseTally)
	if !reflect.DeepEqual(again, phases) {
		t.Errorf("re-appending a recorded phase changed the set: %v", again)
	}
}

func TestAllPhasesComplete(t *testing.T) {
	var phases []TransitionPhase
	for i, p := range TransitionPhases {
		if AllPhasesComplete(phases) {
			t.Fatalf("reported complete after %d of %d phases", i, len(TransitionPhases))
		}
		phases = AppendPhase(phases, p)
	}
	if !AllPhasesComplete(phases) {
		t.Errorf("all four phases recorded but not reported complete: %v", phases)
	}
}

func TestHasPhase_Empty(t *testing.T) {
	if HasPhase(nil, TransitionPhasePrepare) {
		t.Error("empty phase set claims to contain prepare")
	}
}
