package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nemawashi-ai/nema/backend/internal/handler/chat"
	"github.com/nemawashi-ai/nema/backend/internal/handler/relay"
	"github.com/nemawashi-ai/nema/backend/internal/handler/widget"
	middlewarePkg "github.com/nemawashi-ai/nema/backend/internal/middleware"
	chatService "github.com/nemawashi-ai/nema/backend/internal/service/chat"
	"github.com/nemawashi-ai/nema/backend/internal/service/webhook"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, forwarder *webhook.Forwarder) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	relayHandler := relay.New(forwarder)
	chatHandler := chat.New(chatSvc)
	widgetHandler := widget.New()

	r.Route("/api", func(api chi.Router) {
		relayHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	widgetHandler.RegisterRoutes(r)

	return r
}
