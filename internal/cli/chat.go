package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/aretw0/switchboard/pkg/runner"
)

// ChatOptions configures an interactive (or JSON Lines) conversation.
type ChatOptions struct {
	SessionID   string
	UserID      string
	AutoApprove bool
	Deny        []string
	JSON        bool
	Fresh       bool

	In  io.Reader
	Out io.Writer
}

// RunChat drives one session from the terminal until the user quits.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = runner.DefaultSessionID
	}

	if opts.Fresh {
		if err := app.Engine.Reset(ctx, opts.SessionID); err != nil {
			return err
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var renderer runner.ContentRenderer
		if f, ok := opts.Out.(*os.File); ok && tui.IsTerminal(f) {
			tui.PrintBanner(f, switchboard.Version, opts.SessionID)
			renderer = tui.NewRenderer(tui.Width(f))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, runner.WithTextHandlerRenderer(renderer))
	}

	sess, err := app.Engine.Start(ctx, opts.SessionID, opts.UserID)
	if err != nil {
		return err
	}
	app.Logger.Info("session active", "session_id", sess.ID, "user_id", sess.UserID(), "status", sess.Status)

	r := runner.NewRunner(
		runner.WithLogger(app.Logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithUserID(opts.UserID),
		runner.WithInputHandler(handler),
		runner.WithApprovalPolicy(approvalPolicy(handler, opts)),
	)
	return handleExecutionError(r.Run(ctx, app.Engine))
}

func approvalPolicy(handler runner.IOHandler, opts ChatOptions) runner.ApprovalPolicy {
	var base runner.ApprovalPolicy
	if opts.AutoApprove {
		base = runner.AutoApproveMiddleware()
	} else {
		base = runner.ConfirmationMiddleware(handler)
	}
	if len(opts.Deny) == 0 {
		return base
	}
	return runner.MultiPolicy(runner.DenyListMiddleware(opts.Deny...), base)
}
