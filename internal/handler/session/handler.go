package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
	sessionservice "github.com/greenpaw/ecobuddies/backend/internal/service/session"
	"github.com/greenpaw/ecobuddies/backend/pkg/utils"
)

// Handler translates renderer events into state machine transitions and
// serves render snapshots back.
type Handler struct {
	machine *flow.Machine
}

// New creates the session handler.
func New(machine *flow.Machine) *Handler {
	return &Handler{machine: machine}
}

// RegisterRoutes registers session lifecycle and event routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreate)
	r.Get("/session/{sessionID}", h.handleGet)
	r.Post("/session/{sessionID}/next", h.handleNext)
	r.Post("/session/{sessionID}/profile", h.handleProfile)
	r.Post("/session/{sessionID}/companion", h.handleSelectCompanion)
	r.Post("/session/{sessionID}/home", h.handleGoHome)
	r.Post("/session/{sessionID}/task", h.handlePickTask)
	r.Post("/session/{sessionID}/task/complete", h.handleCompleteTask)
	r.Post("/session/{sessionID}/expand", h.handleExpand)
	r.Post("/session/{sessionID}/identify/open", h.handleOpenIdentify)
	r.Post("/session/{sessionID}/identify", h.handleSubmitImage)
	r.Post("/session/{sessionID}/chat/open", h.handleOpenChat)
	r.Post("/session/{sessionID}/chat", h.handleChatMessage)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := h.machine.Start(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.machine.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondFlowError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w)(h.machine.Next(r.Context(), chi.URLParam(r, "sessionID")))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	var payload model.Profile
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondTransition(w)(h.machine.SubmitProfile(r.Context(), chi.URLParam(r, "sessionID"), payload))
}

func (h *Handler) handleSelectCompanion(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CompanionID string `json:"companionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.CompanionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "companionId is required")
		return
	}
	h.respondTransition(w)(h.machine.SelectCompanion(r.Context(), chi.URLParam(r, "sessionID"), payload.CompanionID))
}

func (h *Handler) handleGoHome(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w)(h.machine.GoHome(r.Context(), chi.URLParam(r, "sessionID")))
}

func (h *Handler) handlePickTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == "" {
		utils.RespondError(w, http.StatusBadRequest, "task name is required")
		return
	}
	h.respondTransition(w)(h.machine.PickTask(r.Context(), chi.URLParam(r, "sessionID"), payload.Name))
}

func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w)(h.machine.CompleteTask(r.Context(), chi.URLParam(r, "sessionID")))
}

func (h *Handler) handleExpand(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Index int    `json:"index"`
		Mode  string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondTransition(w)(h.machine.Expand(r.Context(), chi.URLParam(r, "sessionID"), payload.Index, model.ExpandMode(payload.Mode)))
}

func (h *Handler) handleOpenIdentify(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w)(h.machine.OpenIdentify(r.Context(), chi.URLParam(r, "sessionID")))
}

func (h *Handler) handleSubmitImage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImageBase64 string `json:"imageBase64"`
		MimeType    string `json:"mimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	image, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
	if err != nil || len(image) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "imageBase64 must be a non-empty base64 payload")
		return
	}
	h.respondTransition(w)(h.machine.SubmitImage(r.Context(), chi.URLParam(r, "sessionID"), image, payload.MimeType))
}

func (h *Handler) handleOpenChat(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w)(h.machine.OpenChat(r.Context(), chi.URLParam(r, "sessionID")))
}

func (h *Handler) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondTransition(w)(h.machine.SendChatMessage(r.Context(), chi.URLParam(r, "sessionID"), payload.Message))
}

// respondTransition writes a transition result: the updated snapshot on
// success, a mapped error otherwise.
func (h *Handler) respondTransition(w http.ResponseWriter) func(model.Session, error) {
	return func(sess model.Session, err error) {
		if err != nil {
			respondFlowError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, sess)
	}
}

// respondFlowError maps state machine errors to HTTP statuses. Invalid
// events are renderer contract violations (400, no-op); gateway failures are
// non-fatal and leave the session untouched.
func respondFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, flow.ErrInvalidSelection):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flow.ErrGatewayUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "your buddy is napping: language model not configured")
	case errors.Is(err, flow.ErrStaleResult):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, "your buddy couldn't answer right now, please try again")
	}
}
