package dashboard

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestOriginAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		allowed []string
		reqHost string
		want    bool
	}{
		{
			name:    "empty origin is allowed",
			origin:  "",
			reqHost: "localhost:9090",
			want:    true,
		},
		{
			name:    "localhost origin allowed by default",
			origin:  "http://localhost:9090",
			reqHost: "localhost:9090",
			want:    true,
		},
		{
			name:    "non-local origin denied by default",
			origin:  "https://evil.example",
			reqHost: "localhost:9090",
			want:    false,
		},
		{
			name:    "allowlist permits exact origin",
			origin:  "https://dash.example.com",
			allowed: []string{"https://dash.example.com"},
			reqHost: "0.0.0.0:9090",
			want:    true,
		},
		{
			name:    "allowlist denies everything else",
			origin:  "https://evil.example",
			allowed: []string{"https://dash.example.com"},
			reqHost: "0.0.0.0:9090",
			want:    false,
		},
		{
			name:    "same host allowed when no allowlist",
			origin:  "https://sim.internal:9090",
			reqHost: "sim.internal:9090",
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := &Handlers{allowedOrigins: tt.allowed}
			if got := h.originAllowed(tt.origin, tt.reqHost); got != tt.want {
				t.Fatalf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestHubBroadcastEventReachesRegisteredClient(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	client := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.clients[client] = true

	go hub.Run()
	hub.BroadcastEvent(Event{Type: "frame"})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Fatal("expected non-empty broadcast payload")
		}
	case <-time.After(time.Second):
		t.Fatal("expected broadcast to reach registered client")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
