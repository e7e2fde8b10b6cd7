package engine

import "testing"

func TestTryTransitionFromExpectedState(t *testing.T) {
	sm := newStateMachine(nil)
	changed, err := sm.tryTransition(InTick, fromSet(Paused, InWait))
	if err != nil {
		t.Fatalf("tryTransition: %v", err)
	}
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if sm.get() != InTick {
		t.Fatalf("state = %v, want InTick", sm.get())
	}
}

func TestTryTransitionFromUnexpectedStateIsNoop(t *testing.T) {
	sm := newStateMachine(nil)
	// sm starts Paused; ask for a transition only valid from InTick.
	changed, err := sm.tryTransition(InWait, fromSet(InTick))
	if err != nil {
		t.Fatalf("tryTransition: %v", err)
	}
	if changed {
		t.Fatalf("changed = true, want false")
	}
	if sm.get() != Paused {
		t.Fatalf("state = %v, want Paused (unchanged)", sm.get())
	}
}

func TestTryTransitionFromStoppedAlwaysErrors(t *testing.T) {
	sm := newStateMachine(nil)
	if _, err := sm.tryTransition(Stopped, fromSet(Paused)); err != nil {
		t.Fatalf("transition to Stopped: %v", err)
	}
	if _, err := sm.tryTransition(Paused, fromSet(Stopped)); err != ErrEngineStopped {
		t.Fatalf("err = %v, want ErrEngineStopped", err)
	}
}

func TestTryTransitionToSameStateReportsUnchanged(t *testing.T) {
	sm := newStateMachine(nil)
	if _, err := sm.tryTransition(Paused, fromSet(Paused)); err != nil {
		t.Fatalf("tryTransition: %v", err)
	}
	changed, err := sm.tryTransition(Paused, fromSet(Paused))
	if err != nil {
		t.Fatalf("tryTransition: %v", err)
	}
	if changed {
		t.Fatalf("changed = true for a same-state transition, want false")
	}
}

func TestStateListenerNotifiedOnRealTransitionOnly(t *testing.T) {
	sm := newStateMachine(nil)
	var transitions int
	sm.listeners.Add(StateListenerFunc(func(newState, oldState State) {
		transitions++
	}))

	if _, err := sm.tryTransition(InTick, fromSet(Paused)); err != nil {
		t.Fatalf("tryTransition: %v", err)
	}
	if _, err := sm.tryTransition(InTick, fromSet(InTick)); err != nil {
		t.Fatalf("tryTransition: %v", err)
	}

	if transitions != 1 {
		t.Fatalf("transitions = %d, want 1 (no-op same-state transition must not notify)", transitions)
	}
}
