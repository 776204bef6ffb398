package catalog

import "fmt"

// Store exposes companion retrieval for the flow machine and HTTP handlers.
type Store interface {
	List() []Companion
	FindByID(id string) (Companion, bool)
	FindAction(companionID, name string) (Action, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for a
// catalog that is fixed at process start.
type MemoryStore struct {
	items []Companion
}

// NewMemoryStore validates and loads the supplied companions. Unknown or
// malformed entries are rejected here rather than at first access: duplicate
// companion IDs, non-positive point values, and duplicate action names are
// all load errors. Action names must be unique across ALL companions because
// task completion is keyed by name alone.
func NewMemoryStore(items []Companion) (*MemoryStore, error) {
	seenIDs := make(map[string]bool, len(items))
	seenActions := make(map[string]string, 16)

	for _, c := range items {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("companion %q: id and name are required", c.ID)
		}
		if seenIDs[c.ID] {
			return nil, fmt.Errorf("duplicate companion id %q", c.ID)
		}
		seenIDs[c.ID] = true

		for _, a := range c.Actions {
			if a.Name == "" {
				return nil, fmt.Errorf("companion %q: action with empty name", c.ID)
			}
			if a.Points <= 0 {
				return nil, fmt.Errorf("companion %q: action %q has non-positive points", c.ID, a.Name)
			}
			if owner, ok := seenActions[a.Name]; ok {
				return nil, fmt.Errorf("action %q defined by both %q and %q", a.Name, owner, c.ID)
			}
			seenActions[a.Name] = c.ID
		}
	}

	return &MemoryStore{items: append([]Companion(nil), items...)}, nil
}

// List returns the loaded companion list.
func (s *MemoryStore) List() []Companion {
	return append([]Companion(nil), s.items...)
}

// FindByID looks up a companion by identifier.
func (s *MemoryStore) FindByID(id string) (Companion, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Companion{}, false
}

// FindAction looks up an action by name within one companion's list.
func (s *MemoryStore) FindAction(companionID, name string) (Action, bool) {
	c, ok := s.FindByID(companionID)
	if !ok {
		return Action{}, false
	}
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}
