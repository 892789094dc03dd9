/*
Package switchboard is a conversational task-delegation engine.

A primary controller talks to the user and hands control to specialized
controllers (flight changes, hotels, car rentals, excursions) scoped to a
narrow set of tools. A specialized controller hands control back with the
CompleteOrEscalate action. Read-only ("safe") tools run immediately, while
state-mutating ("sensitive") tools suspend the session until a human approves
or denies them.

# Concept

Each controller wraps a reasoning engine (ports.Reasoner) with a prompt and a
fixed tool set. The router keeps a dialog stack per session: an empty stack
means the primary controller is active, and the top of the stack is the
specialized controller in charge. The Engine stores sessions through a
ports.StateStore and never runs two turns of the same session at once.

# Usage

	reg := registry.New()
	_ = travelService.Register(reg)

	eng, err := switchboard.New(ctx, "",
		switchboard.WithDescriptors(catalog.Descriptors()...),
		switchboard.WithRegistry(reg),
		switchboard.WithReasoner(reasoner),
		switchboard.WithDefaultUserID("3442 587242"),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.SubmitTurn(ctx, "session-1", "Book hotel 42 for me")
	if err != nil {
		log.Fatal(err)
	}
	for res.Outcome == domain.OutcomeAwaitingApproval {
		fmt.Println("approve", res.Approval.ActionName(), res.Approval.Arguments())
		res, err = eng.ResumeTurn(ctx, "session-1", true, "")
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(res.Reply)

Turn failures (step limit, timeouts, degenerate replies, missing user) are
returned as a TurnResult with Outcome domain.OutcomeFatal and leave the session
usable. A Go error means the call was rejected and nothing changed.
*/
package switchboard
