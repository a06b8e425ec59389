package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Add(&Session{ID: "a"})
	s.Add(&Session{ID: "b"})

	now = now.Add(45 * time.Second)
	_, ok := s.Get("a")
	assert.True(t, ok, "get extends the lifetime")

	now = now.Add(45 * time.Second)
	_, ok = s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Sweep(), "b expired")

	now = now.Add(2 * time.Minute)
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestSessionStoreDelete(t *testing.T) {
	s := NewSessionStore(0)
	s.Add(&Session{ID: "a"})
	s.Delete("a")

	_, ok := s.Get("a")
	assert.False(t, ok)
}
