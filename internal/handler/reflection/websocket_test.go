package reflection

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	reflectionService "github.com/ubloom/ubloom/backend/internal/service/reflection"
)

type wsReply struct {
	Type      string                 `json:"type"`
	RequestID string                 `json:"requestId"`
	Fallback  bool                   `json:"fallback"`
	Data      map[string]interface{} `json:"data"`
}

func dialTestServer(t *testing.T, completer reflectionService.Completer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(completer))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/reflect/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello wsReply
	readReply(t, conn, &hello)
	if hello.Type != "connected" {
		t.Fatalf("expected connected message, got %+v", hello)
	}
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn, out *wsReply) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(out); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestWebSocketReflect(t *testing.T) {
	conn := dialTestServer(t, &stubCompleter{reply: "not json"})

	err := conn.WriteJSON(map[string]interface{}{
		"type":      "reflect",
		"requestId": "r-1",
		"data":      map[string]string{"journal_text": "long day"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply wsReply
	readReply(t, conn, &reply)

	if reply.Type != "reflection" || reply.RequestID != "r-1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if !reply.Fallback {
		t.Fatal("expected fallback flag")
	}
	if reply.Data["growth_category"] != "Emotional Regulation" {
		t.Fatalf("unexpected data: %v", reply.Data)
	}
}

func TestWebSocketReportsErrorsWithKind(t *testing.T) {
	stub := &stubCompleter{reply: "{}"}
	conn := dialTestServer(t, stub)

	if err := conn.WriteJSON(map[string]interface{}{
		"type": "reflect",
		"data": map[string]string{"journal_text": " "},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply wsReply
	readReply(t, conn, &reply)

	if reply.Type != "error" || reply.RequestID == "" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Data["kind"] != string(reflectionService.KindBadRequest) {
		t.Fatalf("unexpected error data: %v", reply.Data)
	}
	if stub.calls != 0 {
		t.Fatal("empty journal must not reach the model")
	}

	if err := conn.WriteJSON(map[string]string{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readReply(t, conn, &reply)
	if reply.Type != "error" {
		t.Fatalf("unsupported type should be rejected, got %+v", reply)
	}
}
