package task

import "testing"

func TestHandleFulfillSticky(t *testing.T) {
	h, c := Create()
	if h.IsCompleted() {
		t.Fatal("new task should be pending")
	}

	c.SetValue(42)
	if h.State() != Fulfilled {
		t.Fatalf("State() = %v, want Fulfilled", h.State())
	}
	if h.Value() != 42 {
		t.Fatalf("Value() = %v, want 42", h.Value())
	}

	// Second settle is a no-op: terminal states are sticky.
	c.SetError("ignored")
	if h.State() != Fulfilled || h.Value() != 42 {
		t.Fatalf("terminal task was mutated by a second settle")
	}
}

func TestOnCompletedRunsImmediatelyWhenTerminal(t *testing.T) {
	h, c := Create()
	c.SetValue("done")

	called := false
	h.OnCompleted(func(h *Handle) {
		called = true
		if h.Value() != "done" {
			t.Errorf("Value() = %v, want done", h.Value())
		}
	})
	if !called {
		t.Fatal("continuation registered on a terminal task must run immediately")
	}
}

func TestOnCompletedOrdering(t *testing.T) {
	h, c := Create()
	var order []int
	h.OnCompleted(func(*Handle) { order = append(order, 1) })
	h.OnCompleted(func(*Handle) { order = append(order, 2) })
	h.OnCompleted(func(*Handle) { order = append(order, 3) })

	c.SetValue(nil)

	want := []int{1, 2, 3}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestWhenAllPreservesOrder(t *testing.T) {
	h1, c1 := Create()
	h2, c2 := Create()
	h3, c3 := Create()

	agg := WhenAll([]*Handle{h1, h2, h3})

	// Settle out of order; the aggregate must still preserve input order.
	c2.SetValue("b")
	c3.SetValue("c")
	c1.SetValue("a")

	if !agg.IsCompleted() || agg.State() != Fulfilled {
		t.Fatalf("aggregate should be fulfilled, got %v", agg.State())
	}
	results := agg.Value().([]any)
	if results[0] != "a" || results[1] != "b" || results[2] != "c" {
		t.Fatalf("results = %v, want [a b c]", results)
	}
}

func TestWhenAllEmptyResolvesImmediately(t *testing.T) {
	agg := WhenAll(nil)
	if !agg.IsCompleted() || agg.State() != Fulfilled {
		t.Fatal("WhenAll(nil) should resolve immediately")
	}
	if len(agg.Value().([]any)) != 0 {
		t.Fatal("WhenAll(nil) should resolve to an empty slice")
	}
}

func TestWhenAllFirstRejectionWins(t *testing.T) {
	h1, c1 := Create()
	h2, c2 := Create()

	agg := WhenAll([]*Handle{h1, h2})

	c1.SetError("boom")
	c2.SetValue("never used")

	if agg.State() != Rejected {
		t.Fatalf("State() = %v, want Rejected", agg.State())
	}
	if agg.Err() != "boom" {
		t.Fatalf("Err() = %v, want boom", agg.Err())
	}
}

func TestRaceFirstSettlerWins(t *testing.T) {
	h1, c1 := Create()
	h2, c2 := Create()

	agg := Race([]*Handle{h1, h2})
	c2.SetValue("fast")
	c1.SetValue("slow")

	if agg.Value() != "fast" {
		t.Fatalf("Value() = %v, want fast", agg.Value())
	}
}
