// Package render produces display HTML for transcript messages. Bot
// replies are markdown-eligible; user input is always escaped plain text.
package render

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/nemawashi-ai/nema/backend/internal/model/chat"
)

// Message renders one transcript message to HTML.
func Message(msg chat.Message) string {
	if msg.Sender == chat.SenderBot && msg.Markdown {
		return Markdown(msg.Text)
	}
	return html.EscapeString(msg.Text)
}

// Markdown renders reply text to HTML. Raw HTML inside the reply is
// skipped; the webhook is not a trusted markup source.
func Markdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML,
	})
	rendered := markdown.Render(p.Parse([]byte(text)), renderer)
	return strings.TrimSpace(string(rendered))
}
