package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ListSessions prints stored session IDs with their state.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, id := range ids {
		sess, err := app.Sessions.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(w, "- %s\t%s\t%s\n", id, sess.State, sess.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// InspectSession prints one session as indented JSON.
func InspectSession(ctx context.Context, app *App, w io.Writer, id string) error {
	sess, err := app.Sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// DeleteSessions removes every listed session and reports each result.
func DeleteSessions(ctx context.Context, app *App, w io.Writer, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := app.Sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
