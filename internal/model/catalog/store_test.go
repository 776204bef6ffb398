package catalog

import "testing"

func TestSeedLoadsCleanly(t *testing.T) {
	store, err := NewMemoryStore(Seed())
	if err != nil {
		t.Fatalf("NewMemoryStore err: %v", err)
	}

	companions := store.List()
	if len(companions) != 2 {
		t.Fatalf("expected 2 companions, got %d", len(companions))
	}

	koala, ok := store.FindByID("koala")
	if !ok {
		t.Fatal("koala not found")
	}
	if len(koala.Actions) != 10 {
		t.Fatalf("expected 10 koala actions, got %d", len(koala.Actions))
	}
}

func TestRejectsDuplicateCompanionID(t *testing.T) {
	items := []Companion{
		{ID: "koala", Name: "Kiki"},
		{ID: "koala", Name: "Kopy"},
	}
	if _, err := NewMemoryStore(items); err == nil {
		t.Fatal("expected error for duplicate companion id")
	}
}

func TestRejectsCrossCompanionActionCollision(t *testing.T) {
	items := []Companion{
		{ID: "a", Name: "A", Actions: []Action{{Name: "Recycle", Points: 5}}},
		{ID: "b", Name: "B", Actions: []Action{{Name: "Recycle", Points: 10}}},
	}
	if _, err := NewMemoryStore(items); err == nil {
		t.Fatal("expected error for action name shared across companions")
	}
}

func TestRejectsNonPositivePoints(t *testing.T) {
	items := []Companion{
		{ID: "a", Name: "A", Actions: []Action{{Name: "Nothing", Points: 0}}},
	}
	if _, err := NewMemoryStore(items); err == nil {
		t.Fatal("expected error for zero-point action")
	}
}

func TestFindAction(t *testing.T) {
	store, err := NewMemoryStore(Seed())
	if err != nil {
		t.Fatalf("NewMemoryStore err: %v", err)
	}

	action, ok := store.FindAction("red-panda", "Plant Trees")
	if !ok {
		t.Fatal("expected to find Plant Trees")
	}
	if action.Points != 15 {
		t.Fatalf("unexpected points: %d", action.Points)
	}

	if _, ok := store.FindAction("koala", "Plant Trees"); ok {
		t.Fatal("Plant Trees must not belong to the koala")
	}
}
