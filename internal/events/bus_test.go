package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus()

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	id := uuid.New()
	b.Publish(DataChanged{Entity: EntityTransaction, Kind: Created, ID: id})

	for i, ch := range []<-chan DataChanged{ch1, ch2} {
		select {
		case e := <-ch:
			if e.ID != id || e.Kind != Created {
				t.Fatalf("subscriber %d got wrong event %+v", i, e)
			}
			if e.At.IsZero() {
				t.Fatalf("subscriber %d expected timestamp to be set", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received event", i)
		}
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	if b.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", b.Subscribers())
	}

	// Channel must be closed so range loops terminate.
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}

	// Publishing to an empty bus must not panic.
	b.Publish(DataChanged{Entity: EntityCategory, Kind: Deleted, ID: uuid.New()})
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBus()

	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(DataChanged{Entity: EntityTransaction, Kind: Updated, ID: uuid.New()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
