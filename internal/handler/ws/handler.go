package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
)

// Handler exposes the renderer event boundary over a WebSocket: the client
// sends discrete event frames and receives the updated render snapshot (or
// an error frame) for each one. Events on one connection are processed
// strictly in order, matching the one-event-at-a-time session model.
type Handler struct {
	machine  *flow.Machine
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(machine *flow.Machine) *Handler {
	return &Handler{
		machine: machine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()

	// Greet with the current snapshot so the renderer can draw immediately.
	snap, err := h.machine.Snapshot(ctx, sessionID)
	if err != nil {
		h.writeError(conn, sessionID, err)
		return
	}
	h.writeState(conn, sessionID, snap)

	for {
		var event inboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] session=%s read error: %v", sessionID, err)
			}
			return
		}

		snap, err := h.apply(ctx, sessionID, event)
		if err != nil {
			h.writeError(conn, sessionID, err)
			continue
		}
		h.writeState(conn, sessionID, snap)
	}
}

// apply dispatches one renderer event to the state machine.
func (h *Handler) apply(ctx context.Context, sessionID string, event inboundEvent) (model.Session, error) {
	switch event.Type {
	case "next":
		return h.machine.Next(ctx, sessionID)
	case "profile":
		var profile model.Profile
		if err := json.Unmarshal(event.Data, &profile); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed profile payload", flow.ErrInvalidSelection)
		}
		return h.machine.SubmitProfile(ctx, sessionID, profile)
	case "companion":
		var data struct {
			CompanionID string `json:"companionId"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed companion payload", flow.ErrInvalidSelection)
		}
		return h.machine.SelectCompanion(ctx, sessionID, data.CompanionID)
	case "home":
		return h.machine.GoHome(ctx, sessionID)
	case "task":
		var data struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed task payload", flow.ErrInvalidSelection)
		}
		return h.machine.PickTask(ctx, sessionID, data.Name)
	case "complete":
		return h.machine.CompleteTask(ctx, sessionID)
	case "expand":
		var data struct {
			Index int    `json:"index"`
			Mode  string `json:"mode"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed expand payload", flow.ErrInvalidSelection)
		}
		return h.machine.Expand(ctx, sessionID, data.Index, model.ExpandMode(data.Mode))
	case "identify.open":
		return h.machine.OpenIdentify(ctx, sessionID)
	case "identify":
		var data struct {
			ImageBase64 string `json:"imageBase64"`
			MimeType    string `json:"mimeType"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed identify payload", flow.ErrInvalidSelection)
		}
		image, err := base64.StdEncoding.DecodeString(data.ImageBase64)
		if err != nil || len(image) == 0 {
			return model.Session{}, fmt.Errorf("%w: imageBase64 must be a non-empty base64 payload", flow.ErrInvalidSelection)
		}
		return h.machine.SubmitImage(ctx, sessionID, image, data.MimeType)
	case "chat.open":
		return h.machine.OpenChat(ctx, sessionID)
	case "chat":
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return model.Session{}, fmt.Errorf("%w: malformed chat payload", flow.ErrInvalidSelection)
		}
		return h.machine.SendChatMessage(ctx, sessionID, data.Message)
	default:
		return model.Session{}, fmt.Errorf("%w: unknown event type %q", flow.ErrInvalidSelection, event.Type)
	}
}

func (h *Handler) writeState(conn *websocket.Conn, sessionID string, snap model.Session) {
	frame := outboundFrame{
		Type:      "state",
		SessionID: sessionID,
		Data:      snap,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] session=%s write error: %v", sessionID, err)
	}
}

func (h *Handler) writeError(conn *websocket.Conn, sessionID string, err error) {
	kind := "error"
	if errors.Is(err, flow.ErrInvalidSelection) {
		kind = "invalid"
	}
	frame := outboundFrame{
		Type:      kind,
		SessionID: sessionID,
		Error:     err.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] session=%s write error: %v", sessionID, err)
	}
}
