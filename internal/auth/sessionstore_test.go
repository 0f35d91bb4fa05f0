package auth

import "testing"

func TestSessionStore_CreateWithIDUsesGivenID(t *testing.T) {
	s := NewSessionStore()
	sess := s.CreateWithID("jti-one", "admin", 3600)
	if sess.ID != "jti-one" {
		t.Fatalf("got id %q, want jti-one", sess.ID)
	}
	got, ok := s.Get("jti-one")
	if !ok {
		t.Fatal("expected session to be retrievable by its jti")
	}
	if got.User != "admin" {
		t.Fatalf("got user %q, want admin", got.User)
	}
}

func TestSessionStore_DeleteRevokesSession(t *testing.T) {
	s := NewSessionStore()
	s.CreateWithID("jti-two", "admin", 3600)
	s.Delete("jti-two")
	if _, ok := s.Get("jti-two"); ok {
		t.Fatal("expected session to be gone after delete")
	}
}

func TestSessionStore_ExpiredSessionIsNotReturned(t *testing.T) {
	s := NewSessionStore()
	s.CreateWithID("jti-three", "admin", -1)
	if _, ok := s.Get("jti-three"); ok {
		t.Fatal("expected an already-expired session to be treated as absent")
	}
}
