package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nemawashi-ai/nema/backend/internal/model/chat"
	"github.com/nemawashi-ai/nema/backend/internal/render"
	chatService "github.com/nemawashi-ai/nema/backend/internal/service/chat"
	"github.com/nemawashi-ai/nema/backend/pkg/utils"
)

// Handler exposes widget sessions over HTTP.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the session handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/session/{sessionID}/messages", h.handleSubmitMessage)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleCloseSession)
}

// messageView augments a transcript message with its display HTML.
type messageView struct {
	chat.Message
	HTML string `json:"html"`
}

func viewOf(messages []chat.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView{Message: msg, HTML: render.Message(msg)})
	}
	return views
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, messages, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session":  session,
		"messages": viewOf(messages),
	})
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messages, err := h.chatSvc.Submit(r.Context(), sessionID, payload.Text)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": viewOf(messages)})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":  session,
		"messages": viewOf(messages),
	})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chatSvc.Close(r.Context(), sessionID); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, chatService.ErrRequestPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
