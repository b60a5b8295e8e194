package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nemawashi-ai/nema/backend/internal/identity"
	model "github.com/nemawashi-ai/nema/backend/internal/model/chat"
	chat "github.com/nemawashi-ai/nema/backend/internal/service/chat"
	"github.com/nemawashi-ai/nema/backend/internal/widget"
)

type fakeRelay struct {
	mu      sync.Mutex
	calls   int
	body    []byte
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRelay) Send(_ context.Context, _, _ string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.body, f.err
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSubmitScenario(t *testing.T) {
	relay := &fakeRelay{body: []byte(`{"response":"Puedo ayudarte a automatizar eso"}`)}
	svc := chat.NewService(relay, identity.NewMemoryStore())
	ctx := context.Background()

	session, messages, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != widget.WelcomeText {
		t.Fatalf("expected welcome transcript, got %+v", messages)
	}

	messages, err = svc.Submit(ctx, session.ID, "Tengo una pizzería y recibo pedidos por WhatsApp")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[1].Sender != model.SenderUser || messages[1].Text != "Tengo una pizzería y recibo pedidos por WhatsApp" {
		t.Fatalf("unexpected user message: %+v", messages[1])
	}
	if messages[2].Sender != model.SenderBot || messages[2].Text != "Puedo ayudarte a automatizar eso" {
		t.Fatalf("unexpected reply message: %+v", messages[2])
	}
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	relay := &fakeRelay{err: errors.New("connection refused")}
	svc := chat.NewService(relay, identity.NewMemoryStore())
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	messages, err := svc.Submit(ctx, session.ID, "hola")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	last := messages[2]
	if last.Sender != model.SenderBot || last.Text != widget.FailureText {
		t.Fatalf("expected fallback message, got %+v", last)
	}
}

func TestSubmitEmptyInputIsNoOp(t *testing.T) {
	relay := &fakeRelay{body: []byte(`{"raw":"ok"}`)}
	svc := chat.NewService(relay, identity.NewMemoryStore())
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	messages, err := svc.Submit(ctx, session.ID, "   ")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected unchanged transcript, got %d messages", len(messages))
	}
	if relay.callCount() != 0 {
		t.Fatalf("expected no relay call, got %d", relay.callCount())
	}
}

func TestSubmitSingleInFlight(t *testing.T) {
	relay := &fakeRelay{
		body:    []byte(`{"raw":"ok"}`),
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	svc := chat.NewService(relay, identity.NewMemoryStore())
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, session.ID, "primero")
		done <- err
	}()
	<-relay.started

	if _, err := svc.Submit(ctx, session.ID, "segundo"); !errors.Is(err, chat.ErrRequestPending) {
		t.Fatalf("expected ErrRequestPending, got %v", err)
	}
	if relay.callCount() != 1 {
		t.Fatalf("second submit must not reach the relay, got %d calls", relay.callCount())
	}

	close(relay.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit err: %v", err)
	}

	// Pending cleared: the next turn goes through.
	messages, err := svc.Submit(ctx, session.ID, "tercero")
	if err != nil {
		t.Fatalf("Submit after resolution err: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
}

func TestSubmitDiscardsLateResponseAfterClose(t *testing.T) {
	relay := &fakeRelay{
		body:    []byte(`{"raw":"tarde"}`),
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	svc := chat.NewService(relay, identity.NewMemoryStore())
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, session.ID, "hola")
		done <- err
	}()
	<-relay.started

	if err := svc.Close(ctx, session.ID); err != nil {
		t.Fatalf("Close err: %v", err)
	}
	close(relay.release)

	if err := <-done; !errors.Is(err, chat.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	// The late reply was dropped, not applied.
	messages, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	for _, msg := range messages {
		if msg.Text == "tarde" {
			t.Fatal("late response applied to closed session")
		}
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := chat.NewService(&fakeRelay{}, identity.NewMemoryStore())

	if _, err := svc.Submit(context.Background(), "missing", "hola"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionsShareVisitorID(t *testing.T) {
	svc := chat.NewService(&fakeRelay{}, identity.NewMemoryStore())
	ctx := context.Background()

	first, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	second, _, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if first.UserID == "" || first.UserID != second.UserID {
		t.Fatalf("expected shared visitor id, got %q and %q", first.UserID, second.UserID)
	}
}
