package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ListSessions prints every stored session with its status.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Engine.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(w, "No sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTATUS\tCONTROLLER\tMESSAGES\tUPDATED")
	for _, id := range ids {
		s, err := app.Engine.Session(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t<unreadable>\t\t\t\n", id)
			continue
		}
		controller, ok := s.Stack.Top()
		if !ok {
			controller = app.Engine.Primary()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", id, s.Status, controller, len(s.Conversation), s.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// InspectSession prints the stored session as indented JSON.
func InspectSession(ctx context.Context, app *App, id string, w io.Writer) error {
	s, err := app.Engine.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", id, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RemoveSession deletes the session. Removing an unknown session is not an error.
func RemoveSession(ctx context.Context, app *App, id string, w io.Writer) error {
	if id == "" {
		return domain.ErrMissingSessionID
	}
	if err := app.Engine.Reset(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", id, err)
	}
	printSystemMessage(w, "Session '%s' deleted.", id)
	return nil
}
