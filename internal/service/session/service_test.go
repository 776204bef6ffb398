package session_test

import (
	"context"
	"testing"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	session "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

func TestCreateSessionDefaults(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if sess.Screen != model.ScreenIntro {
		t.Fatalf("expected intro screen, got %q", sess.Screen)
	}
	if sess.Happiness != 50 {
		t.Fatalf("expected starting happiness 50, got %d", sess.Happiness)
	}
	if sess.TotalPoints != 0 {
		t.Fatalf("expected 0 points, got %d", sess.TotalPoints)
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ID != sess.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, sess.ID)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	svc := session.NewService()

	if _, err := svc.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestUpdateReturnsFreshSnapshot(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	updated, err := svc.Update(ctx, sess.ID, func(s *model.Session) error {
		s.TotalPoints = 42
		return nil
	})
	if err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if updated.TotalPoints != 42 {
		t.Fatalf("expected snapshot to carry the mutation, got %d", updated.TotalPoints)
	}

	// Snapshots are copies: mutating one must not leak into the store.
	updated.CompletedTasks = append(updated.CompletedTasks, "sneaky")
	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if len(got.CompletedTasks) != 0 {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestDeleteDiscardsSession(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	svc.Delete(ctx, sess.ID)
	if _, err := svc.Get(ctx, sess.ID); err == nil {
		t.Fatal("expected deleted session to be gone")
	}
}
