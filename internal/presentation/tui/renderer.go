// Package tui renders replay sessions to a terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// NewMarkdownRenderer returns a function that renders markdown using glamour.
// Without a style it detects light or dark backgrounds automatically.
func NewMarkdownRenderer(style string, width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// Renderer draws to a terminal. It implements ports.Renderer.
type Renderer struct {
	w io.Writer

	current   lipgloss.Style
	dim       lipgloss.Style
	indicator lipgloss.Style
	heading   lipgloss.Style

	// window limits how many history lines are shown around the current one; 0 shows all.
	window int
}

var _ ports.Renderer = (*Renderer)(nil)

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithHistoryWindow shows at most n history lines on each side of the current step.
func WithHistoryWindow(n int) RendererOption {
	return func(r *Renderer) {
		r.window = n
	}
}

// NewRenderer creates a terminal renderer writing to w.
func NewRenderer(w io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{
		w:         w,
		current:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fbc02d")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")),
		indicator: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818cf8")),
		heading:   lipgloss.NewStyle().Underline(true),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) DrawSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	var body string
	switch {
	case snap.Tree != nil:
		body = DrawTree(snap.Tree)
	case len(snap.Forest) == 0:
		body = "(empty stack)\n"
	default:
		body = DrawForest(snap.Forest)
	}

	var b strings.Builder
	b.WriteString(r.heading.Render("Derivation"))
	b.WriteString("\n")
	b.WriteString(body)
	if snap.Truncated {
		b.WriteString(r.dim.Render("(replay stopped early)"))
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) DrawHistory(ctx context.Context, lines []string, current int) error {
	lo, hi := 0, len(lines)
	if r.window > 0 {
		lo = max(0, current-r.window)
		hi = min(len(lines), current+r.window+1)
	}

	var b strings.Builder
	b.WriteString(r.heading.Render("Stack history"))
	b.WriteString("\n")
	if lo > 0 {
		b.WriteString(r.dim.Render("  ..."))
		b.WriteString("\n")
	}
	for i := lo; i < hi; i++ {
		if i == current {
			b.WriteString(r.current.Render("> " + lines[i]))
		} else {
			b.WriteString(r.dim.Render("  " + lines[i]))
		}
		b.WriteString("\n")
	}
	if hi < len(lines) {
		b.WriteString(r.dim.Render("  ..."))
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) DrawIndicator(ctx context.Context, text string) error {
	_, err := fmt.Fprintln(r.w, r.indicator.Render(text))
	return err
}
