package flow

import (
	"context"
	"fmt"
	"log"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	sessionservice "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

// PickTask opens the Task Detail page for an uncompleted task. The suggestion
// list is fetched BEFORE any state moves: a gateway failure leaves the
// session exactly where it was, including the page number. Suggestions are
// refetched on every entry rather than cached.
func (m *Machine) PickTask(ctx context.Context, sessionID, taskName string) (model.Session, error) {
	snap, c, err := m.requirePage(ctx, sessionID, model.PageActions)
	if err != nil {
		return model.Session{}, err
	}

	task, ok := m.catalog.FindAction(c.ID, taskName)
	if !ok {
		return model.Session{}, fmt.Errorf("%w: companion %q has no task %q", ErrInvalidSelection, c.ID, taskName)
	}
	if snap.Completed(task.Name) {
		return model.Session{}, fmt.Errorf("%w: task %q already completed", ErrInvalidSelection, task.Name)
	}
	if m.gateway == nil {
		return model.Session{}, ErrGatewayUnavailable
	}

	epoch := snap.Epoch
	suggestions, err := m.gateway.SuggestSteps(ctx, c, snap.Profile, task)
	if err != nil {
		return model.Session{}, err
	}

	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Epoch != epoch {
			log.Printf("[flow] dropping stale suggestions for session=%s task=%q", sessionID, task.Name)
			return ErrStaleResult
		}
		t := task
		s.CurrentTask = &t
		s.Suggestions = suggestions
		s.Expanded = nil
		s.PageNumber = model.PageTaskDetail
		s.Epoch++
		return nil
	})
}

// Expand opens the how/why drill-down for one suggestion, collapsing any
// other expansion. At most one expansion is ever active, and each drill-down
// is an independent gateway call.
func (m *Machine) Expand(ctx context.Context, sessionID string, index int, mode model.ExpandMode) (model.Session, error) {
	if mode != model.ExpandHow && mode != model.ExpandWhy {
		return model.Session{}, fmt.Errorf("%w: unknown expand mode %q", ErrInvalidSelection, mode)
	}

	snap, c, err := m.requirePage(ctx, sessionID, model.PageTaskDetail)
	if err != nil {
		return model.Session{}, err
	}
	if snap.CurrentTask == nil {
		return model.Session{}, fmt.Errorf("%w: no task being detailed", ErrInvalidSelection)
	}
	if index < 0 || index >= len(snap.Suggestions) {
		return model.Session{}, fmt.Errorf("%w: suggestion index %d out of range", ErrInvalidSelection, index)
	}
	if m.gateway == nil {
		return model.Session{}, ErrGatewayUnavailable
	}

	epoch := snap.Epoch
	text, err := m.gateway.Explain(ctx, c, snap.Profile, *snap.CurrentTask, snap.Suggestions[index], mode)
	if err != nil {
		return model.Session{}, err
	}

	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Epoch != epoch {
			log.Printf("[flow] dropping stale %s explanation for session=%s", mode, sessionID)
			return ErrStaleResult
		}
		s.Expanded = &model.Expansion{Index: index, Mode: mode, Text: text}
		return nil
	})
}

// CompleteTask awards the current task through the ledger and returns to the
// Actions page. The award is idempotent, so a duplicate click cannot
// double-award; the navigation back to page 1 happens either way. This is a
// pure in-memory transition and cannot fail past its precondition.
func (m *Machine) CompleteTask(ctx context.Context, sessionID string) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenCompanion || s.PageNumber != model.PageTaskDetail || s.CurrentTask == nil {
			return fmt.Errorf("%w: no task to complete", ErrInvalidSelection)
		}

		c, err := m.companionFor(s)
		if err != nil {
			return err
		}

		if sessionservice.Award(s, *s.CurrentTask, len(c.Tips)) {
			log.Printf("[flow] awarded %d points for task=%q session=%s", s.CurrentTask.Points, s.CurrentTask.Name, sessionID)
		}

		s.CurrentTask = nil
		s.Suggestions = nil
		s.Expanded = nil
		s.PageNumber = model.PageActions
		s.Epoch++
		return nil
	})
}
