package widget

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nemawashi-ai/nema/backend/internal/model/chat"
)

const (
	// MobileBreakpoint is the viewport width (px) at or below which the
	// conversation collapses behind the floating launcher.
	MobileBreakpoint = 600

	// MaxInputRunes caps text entered through the input buffer. The cap is
	// a courtesy of the input path only; nothing downstream re-enforces it.
	MaxInputRunes = 150
)

const (
	// WelcomeText opens every conversation. It is synthetic and never
	// forwarded to the backend.
	WelcomeText = "¡Hola! Soy Nema, tu agente IA. Cuéntame qué tarea repetitiva te quita tiempo y te ayudo a automatizarla."

	// FailureText replaces the reply whenever the relay call fails.
	FailureText = "Hubo un error al contactar al agente. Intenta más tarde."
)

// View is the presentation state of the widget.
type View int

const (
	ClosedLauncher View = iota
	OpenConversation
	InlinePanel
)

// State is an immutable snapshot of one widget session. Transitions return
// a new value and never mutate the receiver; the message list is append-only.
type State struct {
	Messages []chat.Message
	Input    string
	Pending  bool
	Width    int
	Open     bool
}

// New returns the initial state with the welcome message preloaded.
func New(width int) State {
	return State{
		Messages: []chat.Message{botMessage(WelcomeText)},
		Width:    width,
	}
}

// View derives the presentation state from viewport width and the launcher
// toggle. Wide viewports always show the inline panel.
func (s State) View() View {
	if s.Width > MobileBreakpoint {
		return InlinePanel
	}
	if s.Open {
		return OpenConversation
	}
	return ClosedLauncher
}

// WithInput replaces the input buffer, truncating to MaxInputRunes.
func (s State) WithInput(text string) State {
	if runes := []rune(text); len(runes) > MaxInputRunes {
		text = string(runes[:MaxInputRunes])
	}
	s.Input = text
	return s
}

// WithWidth records a viewport resize. Crossing the breakpoint switches
// between the inline panel and the narrow-viewport states; the message
// list is untouched.
func (s State) WithWidth(width int) State {
	s.Width = width
	return s
}

// Opened expands the launcher into the fullscreen conversation.
func (s State) Opened() State {
	s.Open = true
	return s
}

// Closed collapses the conversation back behind the launcher. Messages
// survive the transition.
func (s State) Closed() State {
	s.Open = false
	return s
}

// BeginSubmit starts the message-exchange lifecycle: append the trimmed
// user message, clear the input buffer, and raise the pending flag. It
// reports false without changing state when the text trims to nothing or
// a request is already outstanding.
func (s State) BeginSubmit(rawText string) (State, bool) {
	text := strings.TrimSpace(rawText)
	if text == "" || s.Pending {
		return s, false
	}

	s.Messages = appendMessage(s.Messages, chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderUser,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	s.Input = ""
	s.Pending = true
	return s, true
}

// ResolveReply terminates the lifecycle with the extracted reply text,
// appended as a markdown-eligible bot message.
func (s State) ResolveReply(text string) State {
	s.Messages = appendMessage(s.Messages, botMessage(text))
	s.Pending = false
	return s
}

// ResolveFailure terminates the lifecycle with the fixed fallback message.
// Every submission reaches ResolveReply or ResolveFailure; the pending
// indicator is never left dangling.
func (s State) ResolveFailure() State {
	s.Messages = appendMessage(s.Messages, botMessage(FailureText))
	s.Pending = false
	return s
}

// Row is one rendered line of the conversation. Thinking rows exist only
// while a request is outstanding and are never stored messages.
type Row struct {
	Message  chat.Message
	Thinking bool
}

// VisibleRows lists the stored messages plus, while pending, a trailing
// thinking indicator.
func (s State) VisibleRows() []Row {
	rows := make([]Row, 0, len(s.Messages)+1)
	for _, msg := range s.Messages {
		rows = append(rows, Row{Message: msg})
	}
	if s.Pending {
		rows = append(rows, Row{Thinking: true})
	}
	return rows
}

func botMessage(text string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderBot,
		Text:      text,
		Markdown:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// appendMessage copies before appending so earlier snapshots stay valid.
func appendMessage(messages []chat.Message, msg chat.Message) []chat.Message {
	next := make([]chat.Message, len(messages), len(messages)+1)
	copy(next, messages)
	return append(next, msg)
}
