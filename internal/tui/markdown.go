package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// defaultWrap is used when the terminal width is unknown.
const defaultWrap = 80

// RenderMarkdown renders md for the terminal with glamour. An empty style
// auto-detects dark or light backgrounds; "notty" renders without color.
func RenderMarkdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
