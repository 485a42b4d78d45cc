package topics

import "github.com/charmbracelet/glamour"

// Renderer formats topic content for the terminal.
type Renderer interface {
	Render(content string) string
}

// PlainRenderer returns content unchanged. Used when output is piped.
type PlainRenderer struct{}

func (PlainRenderer) Render(content string) string { return content }

// GlamourRenderer renders markdown with terminal styling.
type GlamourRenderer struct {
	Width int
}

// Render converts markdown to styled terminal output, falling back to
// the raw text when rendering fails.
func (r GlamourRenderer) Render(content string) string {
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
