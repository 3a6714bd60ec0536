package pipeline

import "testing"

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to State
		allowed  bool
	}{
		{StateDiscovered, StateDebouncing, true},
		{StateDebouncing, StateDebouncing, true},
		{StateDebouncing, StateLoading, true},
		{StateLoading, StateValidating, true},
		{StateValidating, StateUploading, true},
		{StateUploading, StateMinting, true},
		{StateMinting, StateCompleted, true},
		{StateLoading, StateFailed, true},
		{StateValidating, StateFailed, true},
		{StateUploading, StateFailed, true},
		{StateMinting, StateFailed, true},
		{StateDiscovered, StateFailed, false},
		{StateDebouncing, StateFailed, false},
		{StateLoading, StateMinting, false},
		{StateUploading, StateCompleted, false},
		{StateCompleted, StateLoading, false},
		{StateFailed, StateLoading, false},
		{StateFailed, StateDebouncing, false},
	}
	for _, tc := range tests {
		if got := isAllowedTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateDiscovered, StateDebouncing, StateLoading, StateValidating, StateUploading, StateMinting} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
	if !StateCompleted.Terminal() || !StateFailed.Terminal() {
		t.Fatal("completed and failed must be terminal")
	}
}
