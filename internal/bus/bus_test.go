package bus

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewLocationBus()
	sub := b.Subscribe()
	defer sub.Cancel()

	want := LocationEvent{Latitude: 41.7151, Longitude: 44.8271, Address: "Tbilisi"}
	b.Publish(want)

	select {
	case got := <-sub.C:
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewLocationBus()
	sub := b.Subscribe()

	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatal("channel should be closed after cancel")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d after cancel", n)
	}
}

func TestPublishAfterCancelDropsEvent(t *testing.T) {
	b := NewLocationBus()
	sub := b.Subscribe()
	sub.Cancel()

	// must not panic on the closed channel
	b.Publish(LocationEvent{Latitude: 1, Longitude: 2})
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := NewLocationBus()
	slow := b.Subscribe()
	defer slow.Cancel()

	// fill the buffer, then keep publishing; nothing may stall
	for i := 0; i < 10; i++ {
		b.Publish(LocationEvent{Latitude: float64(i)})
	}

	got := <-slow.C
	if got.Latitude != 0 {
		t.Fatalf("slow subscriber should hold the first undelivered event, got %v", got.Latitude)
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	b := NewLocationBus()
	a := b.Subscribe()
	c := b.Subscribe()
	defer c.Cancel()

	a.Cancel()
	b.Publish(LocationEvent{Address: "still delivered"})

	select {
	case got := <-c.C:
		if got.Address != "still delivered" {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber missed the event")
	}
}
