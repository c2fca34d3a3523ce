package session

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestSessionCreateAndValidate(t *testing.T) {
	m := NewManager(time.Minute, 10, zaptest.NewLogger(t))

	s, err := m.Create("alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if s.Token == "" {
		t.Fatal("expected a token")
	}
	if m.Count() != 1 {
		t.Fatalf("expected one session, got %d", m.Count())
	}

	got, ok := m.Validate(s.Token)
	if !ok || got.PlayerName != "alice" {
		t.Fatalf("validate failed: %+v ok=%v", got, ok)
	}
	if _, ok := m.Validate("no-such-token"); ok {
		t.Fatal("unknown token validated")
	}
}

func TestSessionLeaseExpiry(t *testing.T) {
	m := NewManager(10*time.Millisecond, 10, zaptest.NewLogger(t))

	s, err := m.Create("bob")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok := m.Validate(s.Token); ok {
		t.Fatal("expired lease validated")
	}
	if m.Count() != 0 {
		t.Fatalf("expired session not removed, count %d", m.Count())
	}
}

func TestSessionLimit(t *testing.T) {
	m := NewManager(time.Minute, 2, zaptest.NewLogger(t))

	if _, err := m.Create("a"); err != nil {
		t.Fatal(err)
	}
	s, err := m.Create("b")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create("c"); err == nil {
		t.Fatal("expected session limit error")
	}

	m.Remove(s.Token)
	if _, err := m.Create("c"); err != nil {
		t.Fatalf("expected room after removal: %v", err)
	}
}

func TestAccessPasswordRoundTrip(t *testing.T) {
	hash, err := HashAccessPassword("hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := VerifyAccessPassword(hash, "hunter2"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := VerifyAccessPassword(hash, "wrong"); err == nil {
		t.Fatal("expected rejection for wrong password")
	}
	// Empty hash means open access.
	if err := VerifyAccessPassword("", "anything"); err != nil {
		t.Fatalf("open access rejected: %v", err)
	}
}
