package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
)

// OpenIdentify enters the trash-identification page.
func (m *Machine) OpenIdentify(ctx context.Context, sessionID string) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenCompanion || s.PageNumber != model.PageActions {
			return fmt.Errorf("%w: identify not available on screen %q page %d", ErrInvalidSelection, s.Screen, s.PageNumber)
		}
		s.PageNumber = model.PageIdentify
		s.LastIdentification = ""
		s.Epoch++
		return nil
	})
}

// SubmitImage runs the vision gateway over a captured photo and records the
// narration. Failure leaves the session untouched; the page does not change
// either way, so the user can retry or go home.
func (m *Machine) SubmitImage(ctx context.Context, sessionID string, image []byte, mimeType string) (model.Session, error) {
	snap, c, err := m.requirePage(ctx, sessionID, model.PageIdentify)
	if err != nil {
		return model.Session{}, err
	}
	if m.gateway == nil {
		return model.Session{}, ErrGatewayUnavailable
	}

	epoch := snap.Epoch
	result, err := m.gateway.DescribeImage(ctx, c, image, mimeType)
	if err != nil {
		return model.Session{}, err
	}

	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Epoch != epoch {
			log.Printf("[flow] dropping stale identification for session=%s", sessionID)
			return ErrStaleResult
		}
		s.LastIdentification = result
		return nil
	})
}

// OpenChat enters the chat page. On first entry with an empty history the
// companion's opening message is synthesized before the page flips, so a
// gateway failure leaves the session on the Actions page with no phantom
// entries.
func (m *Machine) OpenChat(ctx context.Context, sessionID string) (model.Session, error) {
	snap, c, err := m.requirePage(ctx, sessionID, model.PageActions)
	if err != nil {
		return model.Session{}, err
	}
	if m.gateway == nil {
		return model.Session{}, ErrGatewayUnavailable
	}

	epoch := snap.Epoch
	opening := ""
	if len(snap.ChatHistory) == 0 {
		opening, err = m.gateway.OpeningLine(ctx, c, snap.Profile, snap.Happiness)
		if err != nil {
			return model.Session{}, err
		}
	}

	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Epoch != epoch {
			log.Printf("[flow] dropping stale opening line for session=%s", sessionID)
			return ErrStaleResult
		}
		s.PageNumber = model.PageChat
		if opening != "" && len(s.ChatHistory) == 0 {
			s.ChatHistory = append(s.ChatHistory, model.ChatMessage{
				Role:      "assistant",
				Content:   opening,
				CreatedAt: time.Now().UTC(),
			})
		}
		s.Epoch++
		return nil
	})
}

// BeginChatMessage validates the chat page and appends the user's message.
// The user entry stays even if the reply later fails, so their input is not
// lost. Returns the post-append snapshot and the epoch a reply must match.
func (m *Machine) BeginChatMessage(ctx context.Context, sessionID, text string) (model.Session, uint64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Session{}, 0, fmt.Errorf("%w: empty chat message", ErrInvalidSelection)
	}

	snap, err := m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Screen != model.ScreenCompanion || s.PageNumber != model.PageChat {
			return fmt.Errorf("%w: chat not open", ErrInvalidSelection)
		}
		s.ChatHistory = append(s.ChatHistory, model.ChatMessage{
			Role:      "user",
			Content:   text,
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return model.Session{}, 0, err
	}
	return snap, snap.Epoch, nil
}

// CommitAssistantReply appends a generated reply if the session is still on
// the chat turn the reply was produced for.
func (m *Machine) CommitAssistantReply(ctx context.Context, sessionID string, epoch uint64, text string) (model.Session, error) {
	return m.sessions.Update(ctx, sessionID, func(s *model.Session) error {
		if s.Epoch != epoch || s.PageNumber != model.PageChat {
			log.Printf("[flow] dropping stale chat reply for session=%s", sessionID)
			return ErrStaleResult
		}
		s.ChatHistory = append(s.ChatHistory, model.ChatMessage{
			Role:      "assistant",
			Content:   text,
			CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

// SendChatMessage is the blocking chat turn: append the user message, ask the
// gateway for a reply conditioned on the full history, append the reply.
func (m *Machine) SendChatMessage(ctx context.Context, sessionID, text string) (model.Session, error) {
	if m.gateway == nil {
		return model.Session{}, ErrGatewayUnavailable
	}

	snap, epoch, err := m.BeginChatMessage(ctx, sessionID, text)
	if err != nil {
		return model.Session{}, err
	}

	c, err := m.companionFor(&snap)
	if err != nil {
		return model.Session{}, err
	}

	// The appended user entry rides in as the query, not as history.
	history := snap.ChatHistory[:len(snap.ChatHistory)-1]
	reply, err := m.gateway.Reply(ctx, c, snap.Profile, snap.Happiness, history, strings.TrimSpace(text))
	if err != nil {
		return model.Session{}, err
	}

	return m.CommitAssistantReply(ctx, sessionID, epoch, reply)
}
