package events

import (
	"testing"
	"time"
)

func TestHub_PublishReachesUserSubscribers(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe("user-1", 4)
	defer cancel()
	_, other, cancelOther := hub.Subscribe("user-2", 4)
	defer cancelOther()

	hub.Publish(Event{Type: TypeAlertFired, UserID: "user-1"})

	select {
	case ev := <-ch:
		if ev.Type != TypeAlertFired {
			t.Fatalf("unexpected event type: %s", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}

	select {
	case ev := <-other:
		t.Fatalf("event leaked to another user: %+v", ev)
	default:
	}
}

func TestHub_CancelClosesStream(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe("user-1", 1)

	cancel()
	cancel() // idempotent

	if _, open := <-ch; open {
		t.Fatal("expected channel closed after cancel")
	}
	// Publishing after cancel must not panic or block.
	hub.Publish(Event{Type: TypeAlertFired, UserID: "user-1"})
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe("user-1", 1)
	defer cancel()

	hub.Publish(Event{Type: TypeAlertFired, UserID: "user-1"})
	hub.Publish(Event{Type: TypeAlertFired, UserID: "user-1"}) // buffer full, dropped

	if got := len(ch); got != 1 {
		t.Fatalf("expected 1 buffered event, got %d", got)
	}
}

func TestHub_EmptyUserIgnored(t *testing.T) {
	hub := NewHub()
	id, ch, cancel := hub.Subscribe("  ", 1)
	defer cancel()
	if id != "" {
		t.Fatal("expected empty stream id for blank user")
	}
	if _, open := <-ch; open {
		t.Fatal("expected closed channel for blank user")
	}
	hub.Publish(Event{Type: TypeAlertFired, UserID: ""})
}
