package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemawashi-ai/nema/backend/internal/identity"
	"github.com/nemawashi-ai/nema/backend/internal/model/chat"
	"github.com/nemawashi-ai/nema/backend/internal/reply"
	"github.com/nemawashi-ai/nema/backend/internal/service/relay"
	"github.com/nemawashi-ai/nema/backend/internal/widget"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrRequestPending  = errors.New("request already pending")
)

// Service runs the message-exchange lifecycle for in-memory widget
// sessions: optimistic user append, one relay call per turn, reply or
// fallback append, terminal state always reached.
type Service struct {
	mu       sync.RWMutex
	relay    relay.Client
	identity identity.Store
	sessions map[string]*session
}

type session struct {
	mu     sync.Mutex
	meta   chat.Session
	state  widget.State
	closed bool
}

// NewService bootstraps the in-memory session engine.
func NewService(relayClient relay.Client, ids identity.Store) *Service {
	return &Service{
		relay:    relayClient,
		identity: ids,
		sessions: make(map[string]*session),
	}
}

// CreateSession provisions a session with the welcome message preloaded.
// All sessions share the store's visitor identifier, mirroring one
// browser profile.
func (s *Service) CreateSession(_ context.Context) (chat.Session, []chat.Message, error) {
	userID, err := s.identity.UserID()
	if err != nil {
		return chat.Session{}, nil, err
	}

	sess := &session{
		meta: chat.Session{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		},
		state: widget.New(0),
	}

	s.mu.Lock()
	s.sessions[sess.meta.ID] = sess
	s.mu.Unlock()

	return sess.meta, transcript(sess.state), nil
}

// Submit runs one turn of the lifecycle and returns the transcript with
// the outcome already appended. All-whitespace input is a silent no-op.
// A second submission while one is outstanding is rejected without a
// relay call.
func (s *Service) Submit(ctx context.Context, sessionID, rawText string) ([]chat.Message, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrSessionClosed
	}
	next, ok := sess.state.BeginSubmit(rawText)
	if !ok {
		if sess.state.Pending {
			sess.mu.Unlock()
			return nil, ErrRequestPending
		}
		messages := transcript(sess.state)
		sess.mu.Unlock()
		return messages, nil
	}
	sess.state = next
	sent := next.Messages[len(next.Messages)-1].Text
	userID := sess.meta.UserID
	sess.mu.Unlock()

	body, err := s.relay.Send(ctx, sent, userID)
	var text string
	if err == nil {
		text, err = reply.Extract(body)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		// The session tore down mid-flight; drop the late response.
		return nil, ErrSessionClosed
	}
	if err != nil {
		log.Printf("[chat] turn failed for session=%s: %v", sessionID, err)
		sess.state = sess.state.ResolveFailure()
	} else {
		sess.state = sess.state.ResolveReply(text)
	}
	return transcript(sess.state), nil
}

// GetSession retrieves session metadata by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return sess.meta, nil
}

// Transcript returns the stored messages for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return transcript(sess.state), nil
}

// Close marks the session torn down. An outstanding turn resolves against
// nothing: its response is discarded instead of applied.
func (s *Service) Close(_ context.Context, sessionID string) error {
	sess, err := s.find(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
	return nil
}

func (s *Service) find(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func transcript(state widget.State) []chat.Message {
	copied := make([]chat.Message, len(state.Messages))
	copy(copied, state.Messages)
	return copied
}
