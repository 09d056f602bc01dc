package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/parsetrail/internal/presentation/tui"
)

// ListSessions prints the stored session ids.
func ListSessions(ctx context.Context, w io.Writer, app *App) error {
	ids, err := app.Replayer.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectOptions selects how a session is printed.
type InspectOptions struct {
	JSON  bool
	Style string
	Width int
}

// InspectSession prints one session, as JSON or as a markdown summary rendered with glamour.
func InspectSession(ctx context.Context, w io.Writer, app *App, id string, opts InspectOptions) error {
	s, err := app.Replayer.Sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load session '%s': %w", id, err)
	}

	if opts.JSON {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	width := opts.Width
	if width <= 0 {
		width = 80
	}
	render, err := tui.NewMarkdownRenderer(opts.Style, width)
	if err != nil {
		return err
	}
	out, err := render(tui.Summary(s))
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// RemoveSessions deletes the given sessions, or every session when all is set.
// It keeps going after a failure and reports every error at the end.
func RemoveSessions(ctx context.Context, w io.Writer, app *App, ids []string, all bool) error {
	mgr := app.Replayer.Sessions
	if all {
		listed, err := mgr.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		ids = listed
	}

	var errs []error
	for _, id := range ids {
		if err := mgr.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
