package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
	"github.com/calldeck-team/calldeck/internal/infrastructure/realtime"
)

func newWSServer(t *testing.T) (*realtime.Hub, string) {
	t.Helper()
	hub := realtime.NewHub(nil)

	e := echo.New()
	e.GET("/ws", NewWSHandler(hub, nil).Subscribe)

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count = %d, want %d", hub.SubscriberCount(), want)
}

func TestWSDeliversNewCallEvents(t *testing.T) {
	hub, url := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// The hello frame arrives before any broadcast.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello map[string]interface{}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading hello: %v", err)
	}
	if hello["event"] != "connected" {
		t.Fatalf("first frame = %v", hello)
	}

	waitForSubscribers(t, hub, 1)
	hub.PublishNewCall(entities.NewCallRecord("abc", time.Now()))

	var frame struct {
		Event string          `json:"event"`
		Call  json.RawMessage `json:"call"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("reading newCall: %v", err)
	}
	if frame.Event != "newCall" || len(frame.Call) == 0 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestWSReapsClosedConnections(t *testing.T) {
	hub, url := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForSubscribers(t, hub, 1)

	// An idle client that disconnects must be unsubscribed without waiting
	// for the next publish to fail its write.
	conn.Close()
	waitForSubscribers(t, hub, 0)
}
