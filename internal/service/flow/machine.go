package flow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	sessionservice "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

var (
	// ErrInvalidSelection reports a renderer event that is not valid for the
	// session's current screen or page. The event is rejected as a no-op;
	// the session stays usable.
	ErrInvalidSelection = errors.New("invalid selection for current state")

	// ErrGatewayUnavailable reports that the transition needs the language
	// model gateway and none is configured.
	ErrGatewayUnavailable = errors.New("language model gateway unavailable")

	// ErrStaleResult reports that a gateway result arrived after the session
	// navigated elsewhere and was discarded.
	ErrStaleResult = errors.New("stale gateway result discarded")
)

// Gateway is the language-model collaborator the state machine depends on.
// Calls may be slow and may fail; the machine never retries and never
// mutates session state on failure (the user's own chat message excepted).
type Gateway interface {
	Intro(ctx context.Context, c catalog.Companion, profile *model.Profile) (string, error)
	OpeningLine(ctx context.Context, c catalog.Companion, profile *model.Profile, happiness int) (string, error)
	Reply(ctx context.Context, c catalog.Companion, profile *model.Profile, happiness int, history []model.ChatMessage, userMessage string) (string, error)
	SuggestSteps(ctx context.Context, c catalog.Companion, profile *model.Profile, task catalog.Action) ([]string, error)
	Explain(ctx context.Context, c catalog.Companion, profile *model.Profile, task catalog.Action, suggestion string, mode model.ExpandMode) (string, error)
	DescribeImage(ctx context.Context, c catalog.Companion, image []byte, mimeType string) (string, error)
}

// Machine is the screen state machine: given the current session state and a
// renderer event it decides the next state. One event is processed fully
// before the next; gateway calls happen outside the store lock and their
// results are dropped if the session's epoch moved on in the meantime.
type Machine struct {
	sessions *sessionservice.Service
	catalog  catalog.Store
	gateway  Gateway // nil when the gateway is not configured
}

// NewMachine wires the state machine to its collaborators.
func NewMachine(sessions *sessionservice.Service, store catalog.Store, gateway Gateway) *Machine {
	return &Machine{sessions: sessions, catalog: store, gateway: gateway}
}

// Start provisions a fresh session on the intro screen.
func (m *Machine) Start(ctx context.Context) (model.Session, error) {
	return m.sessions.CreateSession(ctx)
}

// Snapshot returns the current render state.
func (m *Machine) Snapshot(ctx context.Context, sessionID string) (model.Session, error) {
	return m.sessions.Get(ctx, sessionID)
}

// Next advances the single "continue" transitions: intro to onboarding, and
// the Meet page to the Actions page.
func (m *Machine) Next(ctx context.Context, sessionID string) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		switch {
		case s.Screen == model.ScreenIntro:
			s.Screen = model.ScreenOnboarding
		case s.Screen == model.ScreenCompanion && s.PageNumber == model.PageMeet:
			s.PageNumber = model.PageActions
		default:
			return fmt.Errorf("%w: next not available on screen %q page %d", ErrInvalidSelection, s.Screen, s.PageNumber)
		}
		s.Epoch++
		return nil
	})
}

// SubmitProfile captures the onboarding quiz and moves to companion selection.
func (m *Machine) SubmitProfile(ctx context.Context, sessionID string, profile model.Profile) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenOnboarding {
			return fmt.Errorf("%w: profile submission outside onboarding", ErrInvalidSelection)
		}
		p := profile
		s.Profile = &p
		s.Screen = model.ScreenSelection
		s.Epoch++
		return nil
	})
}

// SelectCompanion enters (or re-enters) the companion flow. Companion-scoped
// state resets: page back to Meet, chat history cleared, task selection gone.
// Points and happiness belong to the visit, not the companion, and survive.
func (m *Machine) SelectCompanion(ctx context.Context, sessionID, companionID string) (model.Session, error) {
	c, ok := m.catalog.FindByID(companionID)
	if !ok {
		return model.Session{}, fmt.Errorf("%w: unknown companion %q", ErrInvalidSelection, companionID)
	}

	snap, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if snap.Screen != model.ScreenSelection && snap.Screen != model.ScreenCompanion {
		return model.Session{}, fmt.Errorf("%w: companion selection on screen %q", ErrInvalidSelection, snap.Screen)
	}

	// Best effort: a generated introduction is nice to have, the catalog
	// opening line is the fallback. Selection must work without the gateway.
	introLine := c.OpeningLine
	if m.gateway != nil {
		if generated, err := m.gateway.Intro(ctx, c, snap.Profile); err == nil && generated != "" {
			introLine = generated
		} else if err != nil {
			log.Printf("[flow] intro generation failed for companion=%s: %v", c.ID, err)
		}
	}

	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenSelection && s.Screen != model.ScreenCompanion {
			return fmt.Errorf("%w: companion selection on screen %q", ErrInvalidSelection, s.Screen)
		}
		s.Screen = model.ScreenCompanion
		s.CompanionID = c.ID
		s.PageNumber = model.PageMeet
		s.ChatHistory = s.ChatHistory[:0]
		s.CurrentTask = nil
		s.Suggestions = nil
		s.Expanded = nil
		s.IntroLine = introLine
		s.LastIdentification = ""
		s.ShowTip = false
		s.Epoch++
		return nil
	})
}

// GoHome returns from any excursion page to the Actions page. Leaving the
// chat page clears the conversation history.
func (m *Machine) GoHome(ctx context.Context, sessionID string) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenCompanion || s.PageNumber <= model.PageActions {
			return fmt.Errorf("%w: go home on screen %q page %d", ErrInvalidSelection, s.Screen, s.PageNumber)
		}
		if s.PageNumber == model.PageChat {
			s.ChatHistory = s.ChatHistory[:0]
		}
		s.PageNumber = model.PageActions
		s.CurrentTask = nil
		s.Suggestions = nil
		s.Expanded = nil
		s.Epoch++
		return nil
	})
}

// companionFor resolves the session's selected companion.
func (m *Machine) companionFor(s *model.Session) (catalog.Companion, error) {
	c, ok := m.catalog.FindByID(s.CompanionID)
	if !ok {
		return catalog.Companion{}, fmt.Errorf("%w: no companion selected", ErrInvalidSelection)
	}
	return c, nil
}

// requirePage fetches a snapshot and validates the companion-flow page.
func (m *Machine) requirePage(ctx context.Context, sessionID string, page int) (model.Session, catalog.Companion, error) {
	snap, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return model.Session{}, catalog.Companion{}, err
	}
	if snap.Screen != model.ScreenCompanion || snap.PageNumber != page {
		return model.Session{}, catalog.Companion{}, fmt.Errorf("%w: expected page %d, session on screen %q page %d",
			ErrInvalidSelection, page, snap.Screen, snap.PageNumber)
	}
	c, err := m.companionFor(&snap)
	if err != nil {
		return model.Session{}, catalog.Companion{}, err
	}
	return snap, c, nil
}
