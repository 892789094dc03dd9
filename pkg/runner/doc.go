/*
Package runner drives an interactive conversation against a Turn API engine.

The runner reads user lines through a pluggable IOHandler, submits them as
turns, prints the outcome and, whenever a turn suspends on sensitive actions,
asks an ApprovalPolicy for the approve/deny decision before resuming.

# Key Components

  - Runner: the read / submit / settle loop.
  - TextHandler: interactive terminal I/O, with optional Markdown rendering.
  - JSONHandler: JSON-Lines I/O for scripted hosts.
  - ConfirmationMiddleware: prompts "Approve? [y/N]" through the handler.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithUserID("0000 000001"),
	)
	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
