package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nemawashi-ai/nema/backend/internal/config"
	"github.com/nemawashi-ai/nema/backend/internal/handler"
	"github.com/nemawashi-ai/nema/backend/internal/identity"
	chatService "github.com/nemawashi-ai/nema/backend/internal/service/chat"
	"github.com/nemawashi-ai/nema/backend/internal/service/relay"
	"github.com/nemawashi-ai/nema/backend/internal/service/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ids := identity.NewFileStore(filepath.Join(cfg.Storage.Dir, "identity.json"))
	forwarder := webhook.NewForwarder(cfg.Webhook.URL, cfg.Webhook.Timeout)

	// The session engine normally rides the in-process relay; when the
	// relay is deployed separately (e.g. as an edge function), point the
	// engine at it over HTTP like the browser widget would.
	var relayClient relay.Client
	if cfg.Webhook.RelayURL != "" {
		relayClient = relay.NewHTTPClient(cfg.Webhook.RelayURL)
		log.Printf("using external relay at %s", cfg.Webhook.RelayURL)
	} else {
		relayClient = relay.NewLocal(forwarder)
	}

	chatSvc := chatService.NewService(relayClient, ids)
	router := handler.NewRouter(chatSvc, forwarder)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Nema backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
