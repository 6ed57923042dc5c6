package runner

import "context"

// IOHandler defines the strategy for interacting with the applicant.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents one bot message.
	Output(ctx context.Context, msg string) error

	// Input reads the applicant's next line.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (e.g. where a letter was saved).
	// This is distinct from conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms content before it is written.
// This allows TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
