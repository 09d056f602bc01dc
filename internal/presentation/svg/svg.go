// Package svg draws derivation snapshots as standalone SVG and a static HTML page.
package svg

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/parsetrail/internal/presentation/layout"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
)

const (
	nodeRadius  = 10
	labelOffset = 15
	stroke      = "#555"
)

// Render writes the snapshot as an SVG document.
// Nodes are circles; edges are vertical cubic curves from parent to child.
func Render(w io.Writer, snap *domain.Snapshot, opts layout.Options) error {
	l := layout.Forest(snap.Roots(), opts)

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" id="parse-tree" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(l.Width), num(l.Height), num(l.Width), num(l.Height))

	for _, link := range l.Links {
		p, c := l.Nodes[link.Parent], l.Nodes[link.Child]
		fmt.Fprintf(&b, `  <path class="link" d="%s" fill="none" stroke="%s"/>`+"\n", LinkPath(p.X, p.Y, c.X, c.Y), stroke)
	}

	for _, n := range l.Nodes {
		x, anchor := labelOffset, "start"
		if n.HasChildren {
			x, anchor = -labelOffset, "end"
		}
		class := "node"
		if n.Node.Terminal {
			class += " terminal"
		}
		fmt.Fprintf(&b, `  <g class="%s" transform="translate(%s,%s)">`+"\n", class, num(n.X), num(n.Y))
		fmt.Fprintf(&b, `    <circle r="%d" fill="#fff" stroke="%s"/>`+"\n", nodeRadius, stroke)
		fmt.Fprintf(&b, `    <text dy="0.31em" x="%d" text-anchor="%s">%s</text>`+"\n", x, anchor, html.EscapeString(n.Node.Name))
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>\n")
	_, err := w.Write(b.Bytes())
	return err
}

// LinkPath is the vertical cubic Bézier between two points.
func LinkPath(x0, y0, x1, y1 float64) string {
	my := (y0 + y1) / 2
	return fmt.Sprintf("M%s,%sC%s,%s %s,%s %s,%s",
		num(x0), num(y0), num(x0), num(my), num(x1), num(my), num(x1), num(y1))
}

// HistoryHTML renders the stack history as one div per line; the current one gets class "current".
func HistoryHTML(lines []string, current int) string {
	var b strings.Builder
	b.WriteString(`<div id="stack-state">` + "\n")
	for i, line := range lines {
		class := "stack-step"
		if i == current {
			class += " current"
		}
		fmt.Fprintf(&b, `  <div class="%s">%s</div>`+"\n", class, html.EscapeString(line))
	}
	b.WriteString("</div>\n")
	return b.String()
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// Canvas is a ports.Renderer that keeps the latest drawing in memory.
type Canvas struct {
	opts layout.Options

	mu        sync.RWMutex
	svg       []byte
	history   string
	indicator string
}

var _ ports.Renderer = (*Canvas)(nil)

// NewCanvas creates an empty canvas with the given size.
func NewCanvas(opts layout.Options) *Canvas {
	return &Canvas{opts: opts}
}

func (c *Canvas) DrawSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	var b bytes.Buffer
	if err := Render(&b, snap, c.opts); err != nil {
		return err
	}
	c.mu.Lock()
	c.svg = b.Bytes()
	c.mu.Unlock()
	return nil
}

func (c *Canvas) DrawHistory(ctx context.Context, lines []string, current int) error {
	h := HistoryHTML(lines, current)
	c.mu.Lock()
	c.history = h
	c.mu.Unlock()
	return nil
}

func (c *Canvas) DrawIndicator(ctx context.Context, text string) error {
	c.mu.Lock()
	c.indicator = text
	c.mu.Unlock()
	return nil
}

// SVG returns the last drawn snapshot.
func (c *Canvas) SVG() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.svg
}

// History returns the last drawn history markup.
func (c *Canvas) History() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history
}

// Indicator returns the last indicator text.
func (c *Canvas) Indicator() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indicator
}
