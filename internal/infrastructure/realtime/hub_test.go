package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
)

func receive(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestPublishNewCallReachesAllSubscribers(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	rec := entities.NewCallRecord("abc", time.Now())
	rec.CallerName = "Dana"
	rec.Sentiment = entities.SentimentPositive
	hub.PublishNewCall(rec)

	for _, ch := range []chan []byte{a, b} {
		var ev NewCallEvent
		if err := json.Unmarshal(receive(t, ch), &ev); err != nil {
			t.Fatalf("invalid event payload: %v", err)
		}
		if ev.Event.Event != "newCall" {
			t.Fatalf("event name = %q", ev.Event.Event)
		}
		if ev.Call.ID != "abc" || ev.Call.Caller.Name != "Dana" {
			t.Fatalf("unexpected call payload: %+v", ev.Call)
		}
	}
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	hub := NewHub(nil)
	hub.PublishNewCall(entities.NewCallRecord("abc", time.Now()))

	late := hub.Subscribe()
	defer hub.Unsubscribe(late)

	select {
	case msg := <-late:
		t.Fatalf("late subscriber received replayed message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	hub := NewHub(nil)
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch) // second call must be a no-op, not a double close

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("subscriber count = %d", hub.SubscriberCount())
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(nil)
	hub.PublishNewCall(entities.NewCallRecord("abc", time.Now())) // must not panic or block
}

func TestConcurrentSubscribeDuringBroadcast(t *testing.T) {
	hub := NewHub(nil)
	rec := entities.NewCallRecord("abc", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.PublishNewCall(rec)
		}()
		go func() {
			defer wg.Done()
			ch := hub.Subscribe()
			hub.Unsubscribe(ch)
		}()
	}
	wg.Wait()
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(nil)
	slow := hub.Subscribe()
	defer hub.Unsubscribe(slow)

	rec := entities.NewCallRecord("abc", time.Now())
	done := make(chan struct{})
	go func() {
		// Never drain `slow`; the buffer fills and publishes must drop.
		for i := 0; i < 200; i++ {
			hub.PublishNewCall(rec)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
