package event

import (
	"context"
	"testing"
)

func noopHandler() Handler {
	return HandlerFunc(func(ctx context.Context, env Envelope) error { return nil })
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()

	sub := newSubscription("s1", "prime.discovered", noopHandler())
	r.Add(sub)

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	if got, ok := r.Get("s1"); !ok || got != sub {
		t.Errorf("Get(s1) = %v, %v", got, ok)
	}
	if !r.Remove("s1") {
		t.Error("Remove(s1) = false, want true")
	}
	if r.Remove("s1") {
		t.Error("second Remove(s1) = true, want false")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_MatchOrdering(t *testing.T) {
	r := NewRegistry()

	r.Add(newSubscription("late-low", "display.**", noopHandler(), WithPriority(PriorityLow)))
	r.Add(newSubscription("first", "display.log", noopHandler()))
	r.Add(newSubscription("high", "display.*", noopHandler(), WithPriority(PriorityHigh)))
	r.Add(newSubscription("second", "display.log", noopHandler()))
	r.Add(newSubscription("other", "prime.discovered", noopHandler()))

	got := r.Match("display.log")
	want := []string{"high", "first", "second", "late-low"}
	if len(got) != len(want) {
		t.Fatalf("Match() returned %d subscriptions, want %d", len(got), len(want))
	}
	for i, sub := range got {
		if sub.ID() != want[i] {
			t.Errorf("Match()[%d] = %s, want %s", i, sub.ID(), want[i])
		}
	}
}

func TestRegistry_MatchIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Add(newSubscription("a", "t", noopHandler()))
	r.Add(newSubscription("b", "t", noopHandler()))

	snapshot := r.Match("t")
	r.Remove("a")
	r.Add(newSubscription("c", "t", noopHandler()))

	if len(snapshot) != 2 || snapshot[0].ID() != "a" || snapshot[1].ID() != "b" {
		t.Errorf("snapshot changed after registry mutation: %v", snapshot)
	}
}

func TestRegistry_CancelRemoves(t *testing.T) {
	r := NewRegistry()
	sub := newSubscription("a", "t", noopHandler())
	r.Add(sub)

	sub.Cancel()
	if _, ok := r.Get("a"); ok {
		t.Error("expected Cancel() to remove the subscription from its registry")
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	a := newSubscription("a", "t", noopHandler())
	b := newSubscription("b", "u", noopHandler())
	r.Add(a)
	r.Add(b)

	r.Clear()

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
	if a.IsActive() || b.IsActive() {
		t.Error("expected Clear() to cancel subscriptions")
	}
}
