package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"paper-trading-go/internal/store"
)

func TestSessions_CreateAndResolve(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "session@example.com")

	_, err := service.CreateSession(ctx, store.CreateSessionParams{
		Token:     "tok-1",
		UserId:    p.UserId,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	user, err := service.GetUserBySession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetUserBySession failed: %v", err)
	}
	if user.Id != p.UserId {
		t.Errorf("Expected user %s, got %s", p.UserId, user.Id)
	}
}

func TestSessions_ExpiredTokenRejected(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "expired@example.com")

	_, err := service.CreateSession(ctx, store.CreateSessionParams{
		Token:     "tok-old",
		UserId:    p.UserId,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	_, err = service.GetUserBySession(ctx, "tok-old")
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound for expired token, got: %v", err)
	}

	// Cleanup should purge exactly the expired row.
	purged, err := service.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged session, got %d", purged)
	}
}

func TestSessions_Delete(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestUser(t, service, "logout@example.com")

	_, err := service.CreateSession(ctx, store.CreateSessionParams{
		Token:     "tok-del",
		UserId:    p.UserId,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := service.DeleteSession(ctx, "tok-del"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	_, err = service.GetUserBySession(ctx, "tok-del")
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound after delete, got: %v", err)
	}
}
