package event

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

type scored struct {
	Points int
}

func (scored) EventTopic() topic.Topic { return "game.scored" }

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if got := bus.Stats().ActiveSubscribers; got != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", got)
	}
}

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		_, err := bus.SubscribeFunc("prime.discovered", func(ctx context.Context, env Envelope) error {
			order = append(order, name)
			return nil
		})
		if err != nil {
			t.Fatalf("SubscribeFunc() failed: %v", err)
		}
	}

	if err := bus.Publish(ctx, "prime.discovered", 3); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if got := strings.Join(order, ""); got != "abc" {
		t.Errorf("delivery order = %q, want %q", got, "abc")
	}
}

func TestBus_PriorityOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var order []string
	record := func(name string) HandlerFunc {
		return func(ctx context.Context, env Envelope) error {
			order = append(order, name)
			return nil
		}
	}

	bus.SubscribeFunc("t", record("low"), WithPriority(PriorityLow))
	bus.SubscribeFunc("t", record("normal"))
	bus.SubscribeFunc("t", record("critical"), WithPriority(PriorityCritical))
	bus.SubscribeFunc("t", record("high"), WithPriority(PriorityHigh))

	bus.Publish(ctx, "t", nil)

	want := "critical,high,normal,low"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("delivery order = %q, want %q", got, want)
	}
}

func TestBus_WildcardSubscriptions(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var single, multi, exact int
	bus.SubscribeFunc("display.*", func(ctx context.Context, env Envelope) error {
		single++
		return nil
	})
	bus.SubscribeFunc("display.**", func(ctx context.Context, env Envelope) error {
		multi++
		return nil
	})
	bus.SubscribeFunc("display.slot.cleared", func(ctx context.Context, env Envelope) error {
		exact++
		return nil
	})

	bus.Publish(ctx, "display.log", "hello")
	bus.Publish(ctx, "display.slot.cleared", 1)
	bus.Publish(ctx, "prime.discovered", 5)

	if single != 1 {
		t.Errorf("single wildcard deliveries = %d, want 1", single)
	}
	if multi != 2 {
		t.Errorf("multi wildcard deliveries = %d, want 2", multi)
	}
	if exact != 1 {
		t.Errorf("exact deliveries = %d, want 1", exact)
	}
}

func TestBus_PayloadDelivered(t *testing.T) {
	bus := NewBus()

	var got Envelope
	bus.SubscribeFunc("prime.discovered", func(ctx context.Context, env Envelope) error {
		got = env
		return nil
	})

	if err := bus.Publish(context.Background(), "prime.discovered", 7); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if got.Topic != "prime.discovered" {
		t.Errorf("Topic = %q, want prime.discovered", got.Topic)
	}
	if v, ok := PayloadAs[int](got); !ok || v != 7 {
		t.Errorf("PayloadAs[int] = %v, %v; want 7, true", v, ok)
	}
	if got.Metadata.ID == "" {
		t.Error("expected metadata ID to be stamped")
	}
	if got.Metadata.Timestamp.IsZero() {
		t.Error("expected metadata timestamp to be stamped")
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	if err := bus.Publish(context.Background(), "nobody.listens", nil); err != nil {
		t.Errorf("Publish() = %v, want nil", err)
	}
	if got := bus.Stats().EventsPublished; got != 0 {
		t.Errorf("EventsPublished = %d, want 0", got)
	}
}

func TestBus_InvalidTopic(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	for _, tp := range []topic.Topic{"", "a..b", "display.*"} {
		if err := bus.Publish(ctx, tp, nil); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Publish(%q) = %v, want ErrInvalidTopic", tp, err)
		}
	}
	if _, err := bus.SubscribeFunc("", func(ctx context.Context, env Envelope) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("SubscribeFunc(\"\") = %v, want ErrInvalidTopic", err)
	}
	if _, err := bus.Subscribe("t", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Subscribe(nil) = %v, want ErrNilHandler", err)
	}
}

func TestBus_PublishEvent(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var points int
	bus.SubscribeFunc("game.scored", func(ctx context.Context, env Envelope) error {
		if s, ok := PayloadAs[scored](env); ok {
			points += s.Points
		}
		return nil
	})

	if err := bus.PublishEvent(ctx, scored{Points: 4}); err != nil {
		t.Fatalf("PublishEvent(TopicProvider) failed: %v", err)
	}
	if err := bus.PublishEvent(ctx, Envelope{Topic: "game.scored", Payload: scored{Points: 2}}); err != nil {
		t.Fatalf("PublishEvent(Envelope) failed: %v", err)
	}
	if err := bus.PublishEvent(ctx, 42); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("PublishEvent(int) = %v, want ErrInvalidEvent", err)
	}
	if points != 6 {
		t.Errorf("points = %d, want 6", points)
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var count int
	sub, _ := bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		count++
		return nil
	})

	bus.Publish(ctx, "t", nil)
	sub.Cancel()
	sub.Cancel()
	bus.Publish(ctx, "t", nil)

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if sub.IsActive() {
		t.Error("expected subscription to be inactive after Cancel()")
	}
	if sub.State() != SubscriptionStateCancelled {
		t.Errorf("State() = %v, want cancelled", sub.State())
	}
	if got := bus.Stats().ActiveSubscribers; got != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	sub, _ := bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error { return nil })

	if err := bus.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe() failed: %v", err)
	}
	if err := bus.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe() = %v, want ErrSubscriptionNotFound", err)
	}
	if err := bus.Unsubscribe(nil); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("Unsubscribe(nil) = %v, want ErrInvalidSubscription", err)
	}
}

func TestBus_SubscribeDuringPublishWaitsForNextPublish(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var late int
	var added bool
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		if !added {
			added = true
			bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
				late++
				return nil
			})
		}
		return nil
	})

	bus.Publish(ctx, "t", nil)
	if late != 0 {
		t.Errorf("late subscriber ran during the publish that added it")
	}

	bus.Publish(ctx, "t", nil)
	if late != 1 {
		t.Errorf("late deliveries = %d, want 1", late)
	}
}

func TestBus_CancelDuringPublishStillRunsInFlight(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var second int
	var victim Subscription
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		victim.Cancel()
		return nil
	})
	victim, _ = bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		second++
		return nil
	})

	bus.Publish(ctx, "t", nil)
	if second != 1 {
		t.Errorf("in-flight deliveries = %d, want 1", second)
	}

	bus.Publish(ctx, "t", nil)
	if second != 1 {
		t.Errorf("deliveries after cancel = %d, want 1", second)
	}
}

func TestBus_ReentrantPublish(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var trace []string
	bus.SubscribeFunc("outer", func(ctx context.Context, env Envelope) error {
		trace = append(trace, "outer:start")
		if err := bus.Publish(ctx, "inner", nil); err != nil {
			return err
		}
		trace = append(trace, "outer:end")
		return nil
	})
	bus.SubscribeFunc("inner", func(ctx context.Context, env Envelope) error {
		trace = append(trace, "inner")
		return nil
	})

	if err := bus.Publish(ctx, "outer", nil); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	want := "outer:start,inner,outer:end"
	if got := strings.Join(trace, ","); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestBus_HandlerErrorsAreJoined(t *testing.T) {
	bus := NewBus()
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	var ran int
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error { ran++; return errA })
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error { ran++; return nil })
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error { ran++; return errB })

	err := bus.Publish(context.Background(), "t", nil)
	if ran != 3 {
		t.Errorf("handlers run = %d, want 3", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Publish() = %v, want both handler errors", err)
	}

	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HandlerError in %v", err)
	}
	if herr.Topic != "t" || herr.SubscriptionID == "" {
		t.Errorf("HandlerError = %+v, want topic and subscription ID", herr)
	}
	if got := bus.Stats().HandlerErrors; got != 2 {
		t.Errorf("HandlerErrors = %d, want 2", got)
	}
}

func TestBus_PanicIsRecovered(t *testing.T) {
	var recovered any
	bus := NewBus(WithBusPanicHandler(func(env Envelope, r any, stack []byte) {
		recovered = r
	}))

	var after bool
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		panic("boom")
	})
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		after = true
		return nil
	})

	err := bus.Publish(context.Background(), "t", nil)
	if !errors.Is(err, ErrHandlerPanic) {
		t.Fatalf("Publish() = %v, want ErrHandlerPanic", err)
	}
	var perr *PanicError
	if !errors.As(err, &perr) || perr.Value != "boom" {
		t.Errorf("PanicError = %+v, want value boom", perr)
	}
	if !after {
		t.Error("expected later handler to run after a panic")
	}
	if recovered != "boom" {
		t.Errorf("panic handler received %v, want boom", recovered)
	}
	if got := bus.Stats().HandlerPanics; got != 1 {
		t.Errorf("HandlerPanics = %d, want 1", got)
	}
}

func TestBus_Once(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var count int
	sub, _ := bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		count++
		return bus.Publish(ctx, "t", nil)
	}, WithOnce())

	bus.Publish(ctx, "t", nil)
	bus.Publish(ctx, "t", nil)

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if sub.IsActive() {
		t.Error("expected once subscription to be cancelled")
	}
}

func TestBus_Filter(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var seen []int
	bus.SubscribeFunc("prime.discovered", func(ctx context.Context, env Envelope) error {
		v, _ := PayloadAs[int](env)
		seen = append(seen, v)
		return nil
	}, WithFilter(FilterPayload(func(v int) bool { return v > 5 })))

	for _, v := range []int{2, 3, 5, 7, 11} {
		bus.Publish(ctx, "prime.discovered", v)
	}

	if len(seen) != 2 || seen[0] != 7 || seen[1] != 11 {
		t.Errorf("seen = %v, want [7 11]", seen)
	}
}

func TestBus_CancelledContextStopsDelivery(t *testing.T) {
	bus := NewBus()

	var ran bool
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		ran = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, "t", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() = %v, want context.Canceled", err)
	}
	if ran {
		t.Error("handler ran with a cancelled context")
	}
}

func TestBus_WithClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := NewBus(WithClock(func() time.Time { return fixed }))

	var stamp time.Time
	bus.SubscribeFunc("t", func(ctx context.Context, env Envelope) error {
		stamp = env.Metadata.Timestamp
		return nil
	})
	bus.Publish(context.Background(), "t", nil)

	if !stamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", stamp, fixed)
	}
}

func TestPriority_String(t *testing.T) {
	tests := []struct {
		p    Priority
		want string
	}{
		{PriorityCritical, "critical"},
		{PriorityHigh, "high"},
		{PriorityNormal, "normal"},
		{PriorityLow, "low"},
		{Priority(150), "normal"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Priority(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}
