package relay

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nemawashi-ai/nema/backend/internal/service/webhook"
	"github.com/nemawashi-ai/nema/backend/pkg/utils"
)

// Handler is the same-origin relay endpoint the browser widget posts to.
type Handler struct {
	forwarder *webhook.Forwarder
}

// New creates the relay handler.
func New(forwarder *webhook.Forwarder) *Handler {
	return &Handler{forwarder: forwarder}
}

// RegisterRoutes registers the relay endpoint. The method check lives in
// the handler so non-POST requests get the contract's 405 body.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/chat-proxy", h.handleProxy)
}

func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var payload struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Message == "" || payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Missing message or userId")
		return
	}

	raw, status, err := h.forwarder.Forward(r.Context(), payload.Message, payload.UserID)
	if err != nil {
		log.Printf("[relay] forward failed: %v", err)
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Proxy error",
			"details": err.Error(),
		})
		return
	}

	if status != http.StatusOK {
		// The caller sees 200 either way; leave a trace of the upstream status.
		log.Printf("[relay] webhook answered status %d", status)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"raw": raw})
}
