/*
Package runner implements the interactive loop and I/O orchestration for the lendflow engine.

It acts as the bridge between the conversation engine and the outside world.
The runner delivers queued bot messages, reads applicant input through pluggable
handlers, and persists the session after every step through a session.Manager.

# Key Components

  - Runner: The loop that alternates message delivery and applicant input until END.
  - IOHandler: Decouples how messages are shown and input is read (text, JSON lines).
  - TextHandler: A standard implementation for interactive CLI usage.
  - Send / Deliver: One-shot helpers used by the HTTP and MCP adapters.

# Usage

	r := runner.New(engine,
		runner.WithSessionID("asha"),
		runner.WithManager(session.NewManager(store)),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if _, err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
