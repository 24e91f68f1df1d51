package event

import (
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TypeTestReport, func(e Event) error {
		called = true
		return nil
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeSessionStart, func(e Event) error {
		received = e
		return nil
	})

	if err := bus.Publish(NewSessionStartEvent("go1.25.5")); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	if received.EventType() != TypeSessionStart {
		t.Errorf("Expected event type %q, got %q", TypeSessionStart, received.EventType())
	}
}

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.SubscribeAll(func(e Event) error {
		calls = append(calls, "wildcard")
		return nil
	})
	bus.Subscribe(TypeSessionFinish, func(e Event) error {
		calls = append(calls, "specific-1")
		return nil
	})
	bus.Subscribe(TypeSessionFinish, func(e Event) error {
		calls = append(calls, "specific-2")
		return nil
	})
	bus.Subscribe(TypeTestReport, func(e Event) error {
		calls = append(calls, "other")
		return nil
	})

	_ = bus.Publish(NewSessionFinishEvent(0))

	want := []string{"specific-1", "specific-2", "wildcard"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("call order = %v, want %v", calls, want)
	}
}

func TestBus_PublishJoinsErrors(t *testing.T) {
	bus := NewBus()

	errA := errors.New("a failed")
	ran := false
	bus.Subscribe(TypeTestReport, func(e Event) error { return errA })
	bus.Subscribe(TypeTestReport, func(e Event) error { panic("boom") })
	bus.Subscribe(TypeTestReport, func(e Event) error {
		ran = true
		return nil
	})

	err := bus.Publish(NewTestReportEvent(nil))
	if err == nil {
		t.Fatal("Publish should return the handler errors")
	}
	if !errors.Is(err, errA) {
		t.Errorf("joined error does not wrap errA: %v", err)
	}
	if !strings.Contains(err.Error(), "panicked") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("panic not reported: %v", err)
	}
	if !ran {
		t.Error("a failing handler must not stop later handlers")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe(TypeTestReport, func(e Event) error {
		count++
		return nil
	})

	_ = bus.Publish(NewTestReportEvent(nil))
	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should report the subscription as found")
	}
	_ = bus.Publish(NewTestReportEvent(nil))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe should report false")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TypeTestReport, func(Event) error { return nil })
	bus.SubscribeAll(func(Event) error { return nil })

	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_ConcurrentSubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe(TypeTestReport, func(Event) error { return nil })
		}()
	}
	wg.Wait()

	if bus.SubscriptionCount() != 50 {
		t.Errorf("SubscriptionCount = %d, want 50", bus.SubscriptionCount())
	}
}
