package server

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/magnategame/magnate-server/internal/config"
	"github.com/magnategame/magnate-server/internal/game"
	"github.com/magnategame/magnate-server/internal/session"
)

func newTestGateway(t *testing.T, lease time.Duration) *Gateway {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	sessions := session.NewManager(lease, 0, logger)
	engine := game.NewEngine(game.DefaultConfig(), logger)
	return NewGateway(cfg, engine, sessions, nil, logger)
}

func newTestClient(gw *Gateway) *Client {
	return &Client{hub: gw.hub, send: make(chan []byte, 64)}
}

func sendFrame(t *testing.T, gw *Gateway, c *Client, msgType string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := json.Marshal(Message{Type: msgType, Data: payload})
	if err != nil {
		t.Fatal(err)
	}
	gw.handleMessage(c, frame)
}

func takeReply(t *testing.T, c *Client) outbound {
	t.Helper()
	select {
	case frame := <-c.send:
		var out outbound
		if err := json.Unmarshal(frame, &out); err != nil {
			t.Fatalf("bad reply frame: %v", err)
		}
		return out
	case <-time.After(time.Second):
		t.Fatal("no reply")
		return outbound{}
	}
}

func TestGatewayRejectsUnauthenticatedFrames(t *testing.T) {
	gw := newTestGateway(t, time.Minute)
	c := newTestClient(gw)

	sendFrame(t, gw, c, "create_game", struct{}{})
	if out := takeReply(t, c); out.Error != "not authenticated" {
		t.Fatalf("expected auth rejection, got %+v", out)
	}
}

func TestGatewayLoginThenCreateGame(t *testing.T) {
	gw := newTestGateway(t, time.Minute)
	c := newTestClient(gw)

	sendFrame(t, gw, c, "login", map[string]string{"name": "alice"})
	out := takeReply(t, c)
	if out.Type != "logged_in" || out.Error != "" {
		t.Fatalf("login failed: %+v", out)
	}
	if c.session == "" {
		t.Fatal("expected session token on client")
	}

	sendFrame(t, gw, c, "create_game", struct{}{})
	out = takeReply(t, c)
	if out.Type != "game_created" || out.GameID == "" {
		t.Fatalf("expected game created, got %+v", out)
	}
	if c.gameID != out.GameID {
		t.Fatalf("client not bound to game: %q vs %q", c.gameID, out.GameID)
	}
}

func TestGatewayExpiredSessionIsRejected(t *testing.T) {
	gw := newTestGateway(t, 10*time.Millisecond)
	c := newTestClient(gw)

	sendFrame(t, gw, c, "login", map[string]string{"name": "alice"})
	if out := takeReply(t, c); out.Type != "logged_in" {
		t.Fatalf("login failed: %+v", out)
	}

	sendFrame(t, gw, c, "create_game", struct{}{})
	if out := takeReply(t, c); out.Type != "game_created" {
		t.Fatalf("expected game created, got %+v", out)
	}

	// The lease runs out between frames; the stale token is rejected and
	// the client must log in again.
	time.Sleep(25 * time.Millisecond)
	sendFrame(t, gw, c, "create_game", struct{}{})
	if out := takeReply(t, c); out.Error != "not authenticated" {
		t.Fatalf("expected expired session rejection, got %+v", out)
	}
	if c.session != "" {
		t.Fatal("stale token must be cleared from the client")
	}
}

func TestGatewayFramesRefreshLease(t *testing.T) {
	gw := newTestGateway(t, 50*time.Millisecond)
	c := newTestClient(gw)

	sendFrame(t, gw, c, "login", map[string]string{"name": "alice"})
	if out := takeReply(t, c); out.Type != "logged_in" {
		t.Fatalf("login failed: %+v", out)
	}

	// Steady traffic keeps the session alive past the lease period.
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		sendFrame(t, gw, c, "create_game", struct{}{})
		if out := takeReply(t, c); out.Type != "game_created" {
			t.Fatalf("frame %d rejected: %+v", i, out)
		}
	}
}
