package session

import (
	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
)

// Award applies the task-completion ledger entry to a locked session.
// It is idempotent: a task name already in completedTasks is a silent
// no-op, so duplicate clicks can never double-award. Points, happiness,
// the action counter and the rotating tip only move on first completion.
// tipCount is the length of the companion's tip list (0 disables tips).
//
// Returns true if the task was newly awarded.
func Award(s *model.Session, task catalog.Action, tipCount int) bool {
	if s.Completed(task.Name) {
		return false
	}

	s.CompletedTasks = append(s.CompletedTasks, task.Name)
	s.TotalPoints += task.Points

	s.Happiness += task.Points
	if s.Happiness > 100 {
		s.Happiness = 100
	}

	s.ActionCount++
	if tipCount > 0 && s.ActionCount%2 == 0 {
		s.CurrentTip = (s.ActionCount / 2) % tipCount
		s.ShowTip = true
	}

	return true
}
