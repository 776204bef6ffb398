package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	aiservice "github.com/greenpaw/ecobuddies/backend/internal/service/ai"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
	"github.com/greenpaw/ecobuddies/backend/pkg/utils"
)

// Handler streams companion chat replies via Server-Sent Events.
type Handler struct {
	aiService *aiservice.Service
	machine   *flow.Machine
	catalog   catalog.Store
}

// New creates a new stream handler.
func New(aiSvc *aiservice.Service, machine *flow.Machine, store catalog.Store) *Handler {
	return &Handler{aiService: aiSvc, machine: machine, catalog: store}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes one streamed chat turn for a session.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	// Append the user's entry first; it survives a failed generation.
	snap, epoch, err := h.machine.BeginChatMessage(ctx, sessionID, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	c, ok := h.catalog.FindByID(snap.CompanionID)
	if !ok {
		h.sendSSEError(w, flusher, "no companion selected")
		return fmt.Errorf("companion %q not found", snap.CompanionID)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s is thinking...", c.Name),
	})

	history := snap.ChatHistory[:len(snap.ChatHistory)-1]
	content, err := h.dispatchReply(ctx, w, flusher, sessionID, c, snap, history, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("reply generation failed: %v", err))
		return err
	}

	if _, err := h.machine.CommitAssistantReply(ctx, sessionID, epoch, content); err != nil {
		if errors.Is(err, flow.ErrStaleResult) {
			h.sendSSEError(w, flusher, "session moved on, reply discarded")
			return nil
		}
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed reply for session=%s, companion=%s", sessionID, c.ID)
	return nil
}

// dispatchReply streams chunk by chunk when enabled, otherwise generates one
// blocking reply.
func (h *Handler) dispatchReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, c catalog.Companion, snap model.Session, history []model.ChatMessage, userMessage string) (string, error) {
	if !h.aiService.StreamingEnabled() {
		content, err := h.aiService.Reply(ctx, c, snap.Profile, snap.Happiness, history, userMessage)
		if err != nil {
			return "", err
		}
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   content,
		})
		return content, nil
	}

	stream, err := h.aiService.StreamReply(ctx, c, snap.Profile, snap.Happiness, history, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response.Content, nil
}

// sendSSE sends a Server-Sent Event.
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError sends an error via Server-Sent Events.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
