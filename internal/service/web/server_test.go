package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"socketdrop/internal/shared/types"
)

type fakeStats struct {
	snapshot types.StatsSnapshot
}

func (f *fakeStats) Stats() types.StatsSnapshot { return f.snapshot }

func TestStatus_ReturnsSnapshot(t *testing.T) {
	stats := &fakeStats{snapshot: types.StatsSnapshot{Accepted: 3, FilesWritten: 2}}
	mux := NewMux(types.WebConf{}, stats, NewHub())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got types.StatsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if got.Accepted != 3 || got.FilesWritten != 2 {
		t.Errorf("Unexpected snapshot %+v", got)
	}
}

func TestStatus_RequiresBasicAuthWhenConfigured(t *testing.T) {
	mux := NewMux(types.WebConf{User: "admin", Password: "secret"}, &fakeStats{}, NewHub())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without credentials, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with credentials, got %d", rec.Code)
	}
}

func TestHub_BroadcastsUploadLogToWebsocketClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(NewMux(types.WebConf{}, &fakeStats{}, hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Registration happens asynchronously; keep broadcasting until one arrives.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	received := make(chan WebSocketMessage, 1)
	go func() {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case msg := <-received:
			if msg.Type != "upload_log" {
				t.Fatalf("Expected upload_log message, got %q", msg.Type)
			}
			return
		case <-ticker.C:
			hub.BroadcastUploadLog(&UploadLogEntry{TraceID: "t1", Outcome: "ok"})
		case <-deadline:
			t.Fatal("Timed out waiting for broadcast")
		}
	}
}

func TestBroadcastUploadLog_NilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.BroadcastUploadLog(&UploadLogEntry{})
}
