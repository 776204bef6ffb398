package session_test

import (
	"testing"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	session "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

func freshSession() *model.Session {
	return &model.Session{
		Screen:         model.ScreenCompanion,
		CompanionID:    "koala",
		Happiness:      50,
		CompletedTasks: make([]string, 0, 4),
	}
}

func TestAwardFirstCompletion(t *testing.T) {
	s := freshSession()
	task := catalog.Action{Name: "Recycle Something Today", Points: 5, Glyph: "♻️"}

	if !session.Award(s, task, 2) {
		t.Fatal("expected first award to apply")
	}

	if s.TotalPoints != 5 {
		t.Fatalf("expected 5 points, got %d", s.TotalPoints)
	}
	if s.Happiness != 55 {
		t.Fatalf("expected happiness 55, got %d", s.Happiness)
	}
	if !s.Completed("Recycle Something Today") {
		t.Fatal("task not recorded as completed")
	}
	if s.ActionCount != 1 {
		t.Fatalf("expected action count 1, got %d", s.ActionCount)
	}
}

func TestAwardIsIdempotent(t *testing.T) {
	s := freshSession()
	task := catalog.Action{Name: "Recycle Something Today", Points: 5}

	session.Award(s, task, 2)
	if session.Award(s, task, 2) {
		t.Fatal("expected repeat award to be a no-op")
	}

	if s.TotalPoints != 5 {
		t.Fatalf("double award: expected 5 points total, got %d", s.TotalPoints)
	}
	if s.Happiness != 55 {
		t.Fatalf("double award: expected happiness 55, got %d", s.Happiness)
	}
	if len(s.CompletedTasks) != 1 {
		t.Fatalf("expected 1 completed task, got %d", len(s.CompletedTasks))
	}
	if s.ActionCount != 1 {
		t.Fatalf("expected action count 1, got %d", s.ActionCount)
	}
}

func TestAwardClampsHappiness(t *testing.T) {
	s := freshSession()
	s.Happiness = 95

	session.Award(s, catalog.Action{Name: "Plant Trees", Points: 15}, 0)

	if s.Happiness != 100 {
		t.Fatalf("expected happiness clamped to 100, got %d", s.Happiness)
	}
}

func TestAwardRotatesTipEverySecondAction(t *testing.T) {
	s := freshSession()

	session.Award(s, catalog.Action{Name: "Turn Off Lights", Points: 5}, 2)
	if s.ShowTip {
		t.Fatal("tip must not show after one action")
	}

	session.Award(s, catalog.Action{Name: "Unplug Electronics", Points: 5}, 2)
	if !s.ShowTip {
		t.Fatal("tip should show after two actions")
	}
	if s.CurrentTip != 1 {
		t.Fatalf("expected tip index 1, got %d", s.CurrentTip)
	}
}
