package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/internal/presentation/tui"
	"github.com/aretw0/lendflow/pkg/runner"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	SessionID string
	JSON      bool
	Fresh     bool

	In  io.Reader
	Out io.Writer
	// Interactive enables the banner and markdown rendering.
	Interactive bool
}

// DefaultChatOptions reads stdin and writes stdout, styled when stdout is a terminal.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: tui.IsTerminal(os.Stdout),
	}
}

// RunChat drives one applicant conversation until it ends or input runs out.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.Fresh && opts.SessionID != "" {
		if err := app.Sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var textOpts []runner.TextHandlerOption
		if opts.Interactive {
			tui.PrintBanner(opts.Out, strings.TrimSpace(lendflow.Version))
			if render, err := tui.NewRenderer(); err == nil {
				textOpts = append(textOpts, runner.WithTextHandlerRenderer(render))
			} else {
				app.Logger.Warn("markdown rendering disabled", "err", err)
			}
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.New(app.Engine,
		runner.WithManager(app.Sessions),
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithSessionID(opts.SessionID),
		runner.WithSignalHandling(true),
	)

	sess, err := r.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if !opts.JSON && sess != nil {
		app.Logger.Info("session closed", "session_id", sess.ID, "state", sess.State)
		if !sess.State.Terminal() && app.Config.Store.Backend != config.BackendMemory {
			_ = handler.SystemOutput(ctx, fmt.Sprintf("Session '%s' saved at %s. Resume with --session %s.", sess.ID, sess.State, sess.ID))
		}
	}
	return nil
}
