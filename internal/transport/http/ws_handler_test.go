package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketPushesRotation(t *testing.T) {
	service, _, _ := newTestService(t)
	server := httptest.NewServer(NewRouter(service, RouterOptions{}))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "problem")
	if payload["index"] != float64(1) {
		t.Fatalf("expected problem 1 on connect, got %s %+v", msgType, payload)
	}

	// The subscription is registered before the first message is sent.
	if _, err := service.Rotate(context.Background()); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	_, payload = readNext(conn, t, "rotation")
	if payload["from"] != float64(1) || payload["to"] != float64(2) {
		t.Fatalf("unexpected rotation payload %+v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "problem"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, payload = readNext(conn, t, "problem")
	if payload["index"] != float64(2) {
		t.Fatalf("expected problem 2 after rotation, got %+v", payload)
	}
}

func TestEnqueueStopsWhenWriterExits(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "problem"}) {
		t.Fatalf("expected the first message to be buffered")
	}
	close(writerDone)

	done := make(chan bool)
	go func() { done <- enqueue(send, writerDone, outboundMessage[any]{Type: "problem"}) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected enqueue to report the writer gone")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a full buffer after the writer exited")
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
