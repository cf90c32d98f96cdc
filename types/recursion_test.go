package types

import "testing"

func TestGuardCycle(t *testing.T) {
	t.Parallel()
	g := NewGuard[string](Profile{Name: "test", MaxDepth: 10, MaxIterations: 100})

	if got := g.Enter("a"); got != Entered {
		t.Fatalf("first Enter=%v, want Entered", got)
	}
	if got := g.Enter("b"); got != Entered {
		t.Fatalf("nested Enter=%v, want Entered", got)
	}
	if got := g.Enter("a"); got != Cycle {
		t.Errorf("re-entering active key=%v, want Cycle", got)
	}
	g.Leave("b")
	g.Leave("a")

	// A left key can be entered again.
	if got := g.Enter("a"); got != Entered {
		t.Errorf("re-entering left key=%v, want Entered", got)
	}
	g.Leave("a")
}

func TestGuardDepth(t *testing.T) {
	t.Parallel()
	g := NewGuard[int](Profile{Name: "test", MaxDepth: 3, MaxIterations: 100})

	for i := 0; i < 3; i++ {
		if got := g.Enter(i); got != Entered {
			t.Fatalf("Enter(%d)=%v, want Entered", i, got)
		}
	}
	if got := g.Enter(3); got != DepthExceeded {
		t.Errorf("Enter past MaxDepth=%v, want DepthExceeded", got)
	}
	if g.Depth() != 3 {
		t.Errorf("Depth()=%d after rejected Enter, want 3", g.Depth())
	}
}

func TestGuardIterations(t *testing.T) {
	t.Parallel()
	g := NewGuard[int](Profile{Name: "test", MaxDepth: 2, MaxIterations: 5})

	// Shallow churn: enter and leave distinct keys until the total
	// iteration budget runs out.
	i := 0
	for ; i < 5; i++ {
		if got := g.Enter(i); got != Entered {
			break
		}
		g.Leave(i)
	}
	if got := g.Enter(99); got != IterationExceeded {
		t.Errorf("Enter past MaxIterations=%v, want IterationExceeded", got)
	}
}

func TestGuardLeaveMisuse(t *testing.T) {
	t.Parallel()
	g := NewGuard[string](Profile{Name: "test", MaxDepth: 10, MaxIterations: 100})

	defer func() {
		if recover() == nil {
			t.Error("Leave of an unentered key did not panic")
		}
	}()
	g.Leave("never entered")
}
