package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/internal/presentation/tui"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const replayHelp = "n/→ next   p/← prev   g first   G last   q quit"

// ReplayOptions configures an interactive replay.
type ReplayOptions struct {
	SessionID string

	// Input, when set, requests a fresh trace before replaying.
	Input *parsetrail.Input

	// Interactive reads navigation keys from In; otherwise the view is printed once.
	Interactive bool

	// Window limits the history lines shown around the current step; 0 shows all.
	Window int

	Quiet bool

	In  io.Reader
	Out io.Writer
}

// command is one decoded navigation key.
type command int

const (
	cmdNone command = iota
	cmdNext
	cmdPrev
	cmdFirst
	cmdLast
	cmdQuit
)

// RunReplay draws a session in the terminal and lets the user step through it.
func RunReplay(ctx context.Context, app *App, opts ReplayOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	out := opts.Out

	raw := false
	if f, ok := opts.In.(*os.File); ok && opts.Interactive && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			app.Logger.Warn("Raw mode unavailable, falling back to line input", "error", err)
		} else {
			defer func() { _ = term.Restore(int(f.Fd()), state) }()
			raw = true
			out = &crlfWriter{w: out}
		}
	}

	if !opts.Quiet {
		tui.PrintBanner(out)
	}

	r := app.Replayer
	eng := replay.New(r.Sessions,
		replay.WithRenderer(tui.NewRenderer(out, tui.WithHistoryWindow(opts.Window))),
		replay.WithStartSymbol(app.Config.Replay.StartSymbol),
		replay.WithHooks(app.Metrics.Hooks()),
		replay.WithLogger(app.Logger),
	)

	if opts.Input != nil {
		if _, err := r.Parse(ctx, opts.SessionID, *opts.Input); err != nil {
			return fmt.Errorf("parse failed: %w", err)
		}
		if !opts.Quiet {
			printSystemMessage(out, "Trace loaded into session '%s'.", opts.SessionID)
		}
	}

	screen := termenv.NewOutput(out)
	wipe := func() {
		if raw {
			screen.ClearScreen()
		}
	}

	wipe()
	view, err := eng.Open(ctx, opts.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("%w: %w", errNoTrace, err)
	}
	if err != nil {
		return err
	}
	if !opts.Interactive {
		return nil
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	keys := readCommands(opts.In)
	for {
		fmt.Fprintln(out, help.Render(replayHelp))

		var cmd command
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-keys:
			if !ok {
				return nil
			}
			cmd = c
		}

		wipe()
		switch cmd {
		case cmdNext:
			view, _, err = eng.Next(ctx, opts.SessionID)
		case cmdPrev:
			view, _, err = eng.Prev(ctx, opts.SessionID)
		case cmdFirst:
			view, _, err = eng.Seek(ctx, opts.SessionID, 0)
		case cmdLast:
			view, _, err = eng.Seek(ctx, opts.SessionID, view.Steps-1)
		case cmdQuit:
			if !opts.Quiet {
				printSystemMessage(out, "Stopped at step %d of %d.", view.Cursor+1, view.Steps)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readCommands decodes keys from in until EOF. Arrow keys arrive as ESC [ C / ESC [ D.
func readCommands(in io.Reader) <-chan command {
	ch := make(chan command)
	go func() {
		defer close(ch)
		br := bufio.NewReader(in)
		for {
			b, err := br.ReadByte()
			if err != nil {
				return
			}
			cmd := decodeKey(b, br)
			if cmd == cmdNone {
				continue
			}
			ch <- cmd
			if cmd == cmdQuit {
				return
			}
		}
	}()
	return ch
}

func decodeKey(b byte, br *bufio.Reader) command {
	switch b {
	case 'n', 'l', 'j', ' ':
		return cmdNext
	case 'p', 'h', 'k':
		return cmdPrev
	case 'g':
		return cmdFirst
	case 'G':
		return cmdLast
	case 'q', 3, 4: // Ctrl-C and Ctrl-D arrive as bytes in raw mode.
		return cmdQuit
	case 0x1b:
		if next, err := br.ReadByte(); err != nil || next != '[' {
			return cmdNone
		}
		switch arrow, _ := br.ReadByte(); arrow {
		case 'C', 'B':
			return cmdNext
		case 'D', 'A':
			return cmdPrev
		}
	}
	return cmdNone
}

// crlfWriter restores carriage returns that raw mode stops adding.
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

var errNoTrace = errors.New("no trace to replay; pass --sentence, --grammar and --algorithm")
