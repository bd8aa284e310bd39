// Package help renders markdown documentation for the queue TUI: a token
// model's description from tokenmodel.Registry, and markdown such as the
// queue TOS text (QueueTOS). Adapted from the teacher's internal/ui/markdown
// renderer.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/tokenmodel"
)

// noMarginStyle removes glamour's default document margins so rendered
// help fits inside a bordered overlay box.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps glamour with the queue TUI's help styling.
type Renderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// New creates a markdown renderer word-wrapped to width.
func New(width int) (*Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{renderer: r, width: width}, nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int { return r.width }

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	return r.renderer.Render(markdown)
}

// RenderModel renders a token model's metadata as a markdown description
// card, for the TUI's help panel.
func (r *Renderer) RenderModel(m tokenmodel.Metadata) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Name)
	if m.IsDefault {
		b.WriteString("_default model_\n\n")
	}
	fmt.Fprintf(&b, "%s\n\n", m.Description)
	fmt.Fprintf(&b, "**Performance:** %s\n", m.Performance)
	return r.Render(b.String())
}

// QueueTOS is the terms-of-service markdown for QueueAutomation (spec
// §4.5's scroll/beep/speak side effects act on the live page). No view in
// this module renders it.
const QueueTOS = `# Queue automation

Enabling queue mode lets this extension scroll the page, click send
buttons, and optionally play sounds or speak a phrase on your behalf while
the queue is running. Review your profile's queue settings before turning
this on.
`
