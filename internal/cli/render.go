package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/internal/presentation/graph"
	"github.com/aretw0/parsetrail/internal/presentation/layout"
	"github.com/aretw0/parsetrail/internal/presentation/svg"
	"github.com/aretw0/parsetrail/internal/presentation/tui"
	rebuild "github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/adapters/memory"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
	"github.com/fsnotify/fsnotify"
)

// Render output formats.
const (
	FormatText    = "text"
	FormatSVG     = "svg"
	FormatHTML    = "html"
	FormatMermaid = "mmd"
	FormatJSON    = "json"
)

// LastStep asks Render for the final step of the trace.
const LastStep = -1

// debounce collapses the burst of events editors emit for a single save.
const debounce = 100 * time.Millisecond

// TraceFile is a saved trace: either the service response plus form inputs, or a bare step array.
type TraceFile struct {
	Sentence  string        `json:"sentence"`
	Grammar   string        `json:"grammar"`
	Algorithm string        `json:"algorithm"`
	Steps     []domain.Step `json:"steps"`
}

// RenderOptions configures an offline render.
type RenderOptions struct {
	Path   string
	Format string

	// Cursor is the step to draw; LastStep draws the final one.
	Cursor int

	// Algorithm and Sentence override what the file carries.
	Algorithm string
	Sentence  string

	StartSymbol string
	Layout      layout.Options
	Out         io.Writer
	Logger      *slog.Logger
}

// LoadTrace reads a trace file into a detached session.
func LoadTrace(path string) (*domain.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	var tf TraceFile
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &tf.Steps)
	} else {
		err = json.Unmarshal(data, &tf)
	}
	if err != nil {
		return nil, fmt.Errorf("decode trace %s: %w", filepath.Base(path), err)
	}

	s := domain.NewSession(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	s.Replace(domain.Trace{
		Sentence:  tf.Sentence,
		Grammar:   tf.Grammar,
		Algorithm: domain.Algorithm(tf.Algorithm),
		Steps:     tf.Steps,
	})
	return s, nil
}

// Render draws one step of a saved trace without contacting the parsing service.
func Render(ctx context.Context, opts RenderOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	s, err := LoadTrace(opts.Path)
	if err != nil {
		return err
	}
	if opts.Algorithm != "" {
		s.Algorithm = domain.Algorithm(opts.Algorithm)
	}
	if opts.Sentence != "" {
		s.Sentence = opts.Sentence
	}
	if _, err := s.Algorithm.Family(); err != nil {
		return fmt.Errorf("cannot replay %s: %w", opts.Path, err)
	}

	cursor := opts.Cursor
	if cursor == LastStep {
		cursor = s.Len() - 1
	}
	s.Seek(cursor)

	var renderer ports.Renderer
	var canvas *svg.Canvas
	switch opts.Format {
	case FormatText, "":
		renderer = tui.NewRenderer(opts.Out)
	case FormatHTML:
		canvas = svg.NewCanvas(opts.Layout)
		renderer = canvas
	case FormatSVG, FormatMermaid, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	engOpts := []replay.Option{replay.WithStartSymbol(opts.StartSymbol), replay.WithLogger(opts.Logger)}
	if renderer != nil {
		engOpts = append(engOpts, replay.WithRenderer(renderer))
	}
	eng := replay.New(session.NewManager(memory.NewStore()), engOpts...)

	v, err := eng.Show(ctx, s)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatHTML:
		return canvas.WritePage(opts.Out, fmt.Sprintf("parsetrail: %s (%s)", s.Sentence, v.Indicator))
	case FormatSVG:
		return svg.Render(opts.Out, v.Snapshot, opts.Layout)
	case FormatMermaid:
		overlay := &graph.GraphOverlay{Truncated: v.Snapshot.Truncated}
		if v.Snapshot.Tree != nil {
			overlay.Pending = rebuild.LeftmostUnexpanded(v.Snapshot.Tree)
		}
		_, err := io.WriteString(opts.Out, graph.GenerateMermaid(v.Snapshot, overlay))
		return err
	case FormatJSON:
		enc := json.NewEncoder(opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return nil
}

// WatchRender renders once and again every time the trace file changes, until ctx ends.
// Render errors are logged and do not stop the watch.
func WatchRender(ctx context.Context, opts RenderOptions, onRender func(error)) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	target, err := filepath.Abs(opts.Path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	render := func() {
		err := Render(ctx, opts)
		if err != nil {
			opts.Logger.Warn("Render failed", "path", opts.Path, "error", err)
		}
		if onRender != nil {
			onRender(err)
		}
	}
	render()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			opts.Logger.Debug("Trace changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			render()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				render()
				continue
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}
