package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_SafeToolsThenReply(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("a1", "fetch_user_flight_information", nil))).
		expect(domain.PrimaryController, reply("You are on flight LX0112 tomorrow."))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	res, err := r.Submit(context.Background(), s, "What flights do I have?")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, "You are on flight LX0112 tomorrow.", res.Reply)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Equal(t, 1, tools.count("fetch_user_flight_information"))
	assert.Equal(t, domain.StatusActive, s.Status)
	assert.Empty(t, s.Stack)
	requireAnswered(t, s.Conversation)

	require.Len(t, s.Conversation, 4)
	assert.Equal(t, domain.RoleUser, s.Conversation[0].Role)
	assert.Equal(t, domain.RoleTool, s.Conversation[2].Role)
	assert.Equal(t, "a1", s.Conversation[2].Result.ActionID)

	// The prompt is rendered with the session user.
	assert.Contains(t, reasoner.request(0).Prompt, "<User>3442 587242</User>")
}

func TestRouter_EnterSuspendApprove(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", map[string]any{"request": "hotel in Basel"}))).
		expect("book_hotel", reply("", action("s1", "search_hotels", map[string]any{"location": "Basel"}))).
		expect("book_hotel", reply("", action("b1", "book_hotel", map[string]any{"id": 42})))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	res, err := r.Submit(ctx, s, "Book a hotel in Basel")
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeAwaitingApproval, res.Outcome)
	require.NotNil(t, res.Approval)
	assert.Equal(t, "book_hotel", res.Approval.ActionName())
	assert.Equal(t, 42, res.Approval.Arguments()["id"])
	assert.Equal(t, domain.StatusAwaitingApproval, s.Status)
	assert.Equal(t, "book_hotel", top(s))
	assert.Equal(t, 0, tools.count("book_hotel"), "sensitive tool must not run before approval")

	// The entry request is answered with the announcement.
	entry := s.Conversation[2]
	require.Equal(t, domain.RoleTool, entry.Role)
	assert.Equal(t, "e1", entry.Result.ActionID)
	assert.Contains(t, entry.Result.Text, "Hotel Booking Assistant")

	// A specialized controller is offered the escalation action, not entry actions.
	names := toolNames(reasoner.request(1).Tools)
	assert.Contains(t, names, domain.EscalationTool)
	assert.NotContains(t, names, "ToHotelBookingAssistant")

	reasoner.expect("book_hotel", reply("Hotel 42 is booked."))
	res, err = r.Resume(ctx, s, true, "")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, "book_hotel", res.Controller)
	assert.Equal(t, 1, tools.count("book_hotel"))
	assert.Nil(t, s.Pending)
	assert.Equal(t, domain.StatusActive, s.Status)
	requireAnswered(t, s.Conversation)
}

func TestRouter_DenyWithReason(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("", action("b1", "book_hotel", map[string]any{"id": 42})))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	_, err := r.Submit(ctx, s, "Book hotel 42")
	require.NoError(t, err)

	reasoner.expect("book_hotel", reply("Understood, shall I look for cheaper options?"))
	res, err := r.Resume(ctx, s, false, "too expensive")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, 0, tools.count("book_hotel"))

	// The controller saw the denial before replying.
	seen := reasoner.request(2).Conversation
	denial := seen[len(seen)-1]
	require.Equal(t, domain.RoleTool, denial.Role)
	assert.Equal(t, "b1", denial.Result.ActionID)
	assert.True(t, denial.Result.IsError)
	assert.True(t, denial.Result.IsDenied)
	assert.Contains(t, denial.Result.Text, "too expensive")
	requireAnswered(t, s.Conversation)
}

func TestRouter_DenyWithoutReason(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("", action("b1", "book_hotel", nil), action("b2", "cancel_hotel", nil))).
		expect("book_hotel", reply("Okay."))
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	res, err := r.Submit(ctx, s, "swap hotels")
	require.NoError(t, err)
	require.Len(t, res.Approval.Actions, 2, "one combined approval per batch")

	_, err = r.Resume(ctx, s, false, "")
	require.NoError(t, err)

	var denied int
	for _, m := range s.Conversation {
		if m.Role == domain.RoleTool && m.Result.IsDenied {
			denied++
			assert.Equal(t, domain.DenialNoReason, m.Result.Text)
		}
	}
	assert.Equal(t, 2, denied)
}

func TestRouter_Escalation(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("Which city?"))
	var handoffs []domain.HandoffEvent
	hooks := domain.LifecycleHooks{
		OnHandoff: func(_ context.Context, e *domain.HandoffEvent) { handoffs = append(handoffs, *e) },
	}
	r, _ := build(t, reasoner, runtime.Config{Hooks: hooks})
	s := newSession(t)
	ctx := context.Background()

	_, err := r.Submit(ctx, s, "I need a hotel")
	require.NoError(t, err)
	require.Equal(t, "book_hotel", top(s))

	reasoner.
		expect("book_hotel", reply("", action("x1", domain.EscalationTool, map[string]any{"cancel": true, "reason": "user wants weather"}))).
		expect(domain.PrimaryController, reply("It is sunny in Basel."))
	res, err := r.Submit(ctx, s, "Actually, what's the weather?")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, domain.PrimaryController, res.Controller)
	assert.Empty(t, s.Stack)
	requireAnswered(t, s.Conversation)

	var ack *domain.ToolResult
	for _, m := range s.Conversation {
		if m.Role == domain.RoleTool && m.Result.ActionID == "x1" {
			ack = m.Result
		}
	}
	require.NotNil(t, ack)
	assert.Equal(t, domain.EscalationAck, ack.Text)
	assert.False(t, ack.IsError)

	require.Len(t, handoffs, 2)
	assert.Equal(t, domain.HandoffEnter, handoffs[0].Direction)
	assert.Equal(t, "book_hotel", handoffs[0].To)
	assert.Equal(t, domain.HandoffEscalate, handoffs[1].Direction)
	assert.Equal(t, domain.PrimaryController, handoffs[1].To)
}

func TestRouter_EscalationSkipsSiblings(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("", action("s1", "search_hotels", nil), action("x1", domain.EscalationTool, nil))).
		expect(domain.PrimaryController, reply("How else can I help?"))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	_, err := r.Submit(context.Background(), s, "never mind")
	require.NoError(t, err)

	assert.Equal(t, 0, tools.count("search_hotels"))
	assert.Empty(t, s.Stack)
	requireAnswered(t, s.Conversation)
}

func TestRouter_EntrySkipsSiblings(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("",
			action("f1", "search_flights", nil),
			action("e1", "ToHotelBookingAssistant", nil),
			action("e2", "ToFlightBookingAssistant", nil),
		)).
		expect("book_hotel", reply("Where to?"))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	res, err := r.Submit(context.Background(), s, "hotel and flight please")
	require.NoError(t, err)

	assert.Equal(t, "book_hotel", res.Controller)
	assert.Equal(t, domain.DialogStack{"book_hotel"}, s.Stack)
	assert.Equal(t, 0, tools.count("search_flights"))
	requireAnswered(t, s.Conversation)

	for _, m := range s.Conversation {
		if m.Role == domain.RoleTool && m.Result.ActionID != "e1" {
			assert.True(t, m.Result.IsError)
			assert.Contains(t, m.Result.Text, "ToHotelBookingAssistant")
		}
	}
}

func TestRouter_MixedBatchSuspends(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("", action("s1", "search_hotels", nil), action("b1", "book_hotel", nil)))
	r, tools := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	res, err := r.Submit(ctx, s, "book the cheapest")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAwaitingApproval, res.Outcome)
	assert.Equal(t, "search_hotels, book_hotel", res.Approval.ActionName())
	assert.Equal(t, 0, tools.count("search_hotels"), "a mixed batch runs as a whole after approval")

	reasoner.expect("book_hotel", reply("Done."))
	_, err = r.Resume(ctx, s, true, "")
	require.NoError(t, err)
	assert.Equal(t, 1, tools.count("search_hotels"))
	assert.Equal(t, 1, tools.count("book_hotel"))
	requireAnswered(t, s.Conversation)
}

func TestRouter_UndeclaredToolRequiresApproval(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("u1", "launch_rocket", nil))).
		expect(domain.PrimaryController, reply("Sorry, I cannot do that."))
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	res, err := r.Submit(ctx, s, "launch it")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAwaitingApproval, res.Outcome)

	_, err = r.Resume(ctx, s, true, "")
	require.NoError(t, err)

	seen := reasoner.request(1).Conversation
	last := seen[len(seen)-1]
	assert.True(t, last.Result.IsError)
	assert.Contains(t, last.Result.Text, "launch_rocket")
}

// A specialized controller cannot nest another handoff: a foreign entry
// action is an undeclared tool, so it suspends like any other and is
// answered as unavailable once approved.
func TestRouter_ForeignEntryFromSpecialized(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
		expect("book_hotel", reply("", action("e2", "ToFlightBookingAssistant", nil))).
		expect("book_hotel", reply("I can only help with hotels."))
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)
	ctx := context.Background()

	res, err := r.Submit(ctx, s, "hotel, then change my flight")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAwaitingApproval, res.Outcome)
	assert.Equal(t, "ToFlightBookingAssistant", res.Approval.ActionName())
	assert.Equal(t, domain.DialogStack{"book_hotel"}, s.Stack)

	res, err = r.Resume(ctx, s, true, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReply, res.Outcome)
	assert.Equal(t, domain.DialogStack{"book_hotel"}, s.Stack, "no nested handoff")

	seen := reasoner.request(2).Conversation
	last := seen[len(seen)-1]
	assert.True(t, last.Result.IsError)
	assert.Contains(t, last.Result.Text, "ToFlightBookingAssistant")
	requireAnswered(t, s.Conversation)
}

func TestRouter_StepLimit(t *testing.T) {
	reasoner := &scriptedReasoner{
		fallback: func(req ports.ReasoningRequest) (domain.Message, error) {
			return reply("", action("", "search_flights", nil)), nil
		},
	}
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	res, err := r.Submit(context.Background(), s, "loop forever")
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeFatal, res.Outcome)
	var te *domain.TurnError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, domain.KindLoop, te.Kind)
	assert.ErrorIs(t, res.Err, domain.ErrStepLimitExceeded)
	assert.Equal(t, domain.DefaultMaxSteps, reasoner.calls())

	// The session stays usable with the partial conversation.
	assert.Equal(t, domain.StatusActive, s.Status)
	assert.Greater(t, len(s.Conversation), 1)
	requireAnswered(t, s.Conversation)
}

func TestRouter_MissingUserID(t *testing.T) {
	reasoner := &scriptedReasoner{}
	r, _ := build(t, reasoner, runtime.Config{})
	s := domain.NewSession("anon")

	res, err := r.Submit(context.Background(), s, "hi")
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeFatal, res.Outcome)
	var te *domain.TurnError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, domain.KindConfig, te.Kind)
	assert.ErrorIs(t, res.Err, domain.ErrMissingUserID)
	assert.Empty(t, s.Conversation)
	assert.Zero(t, reasoner.calls())
}

func TestRouter_DegenerateReplies(t *testing.T) {
	t.Run("Recovers", func(t *testing.T) {
		reasoner := (&scriptedReasoner{}).
			expect(domain.PrimaryController, reply("")).
			expect(domain.PrimaryController, reply("Hello!"))
		r, _ := build(t, reasoner, runtime.Config{})
		s := newSession(t)

		res, err := r.Submit(context.Background(), s, "hi")
		require.NoError(t, err)
		assert.Equal(t, "Hello!", res.Reply)

		retry := reasoner.request(1).Conversation
		assert.Equal(t, domain.CorrectiveNote, retry[len(retry)-1].Text)

		// The corrective note is never persisted.
		for _, m := range s.Conversation {
			assert.NotEqual(t, domain.CorrectiveNote, m.Text)
		}
		require.Len(t, s.Conversation, 2)
	})

	t.Run("Exhausted", func(t *testing.T) {
		reasoner := &scriptedReasoner{
			fallback: func(ports.ReasoningRequest) (domain.Message, error) { return reply(""), nil },
		}
		r, _ := build(t, reasoner, runtime.Config{})
		s := newSession(t)

		res, err := r.Submit(context.Background(), s, "hi")
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeFatal, res.Outcome)
		assert.ErrorIs(t, res.Err, domain.ErrDegenerateReply)
		var te *domain.TurnError
		require.ErrorAs(t, res.Err, &te)
		assert.Equal(t, domain.KindDegenerate, te.Kind)
		assert.Equal(t, domain.DefaultMaxAttempts, reasoner.calls())
		assert.Len(t, s.Conversation, 1)
	})

	t.Run("Fallback", func(t *testing.T) {
		reasoner := &scriptedReasoner{
			fallback: func(ports.ReasoningRequest) (domain.Message, error) { return reply(""), nil },
		}
		r, _ := build(t, reasoner, runtime.Config{FallbackReply: "Sorry, please rephrase."})
		s := newSession(t)

		res, err := r.Submit(context.Background(), s, "hi")
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeReply, res.Outcome)
		assert.Equal(t, "Sorry, please rephrase.", res.Reply)
	})
}

func TestRouter_ReasoningFailure(t *testing.T) {
	reasoner := (&scriptedReasoner{}).fail(domain.PrimaryController, errors.New("upstream 500"))
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	res, err := r.Submit(context.Background(), s, "hi")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeFatal, res.Outcome)
	var te *domain.TurnError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, domain.KindReasoning, te.Kind)
	assert.Contains(t, res.Error, "upstream 500")
}

func TestRouter_Timeout(t *testing.T) {
	reasoner := &scriptedReasoner{
		fallback: func(req ports.ReasoningRequest) (domain.Message, error) {
			return domain.Message{}, fmt.Errorf("call: %w", context.DeadlineExceeded)
		},
	}
	r, _ := build(t, reasoner, runtime.Config{})
	s := newSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	res, err := r.Submit(ctx, s, "hi")
	require.NoError(t, err)
	var te *domain.TurnError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, domain.KindTimeout, te.Kind)
}

func TestRouter_UsageErrors(t *testing.T) {
	t.Run("Resume Without Pending", func(t *testing.T) {
		r, _ := build(t, &scriptedReasoner{}, runtime.Config{})
		s := newSession(t)
		before := s.Snapshot()

		_, err := r.Resume(context.Background(), s, true, "")
		assert.ErrorIs(t, err, domain.ErrNoPendingApproval)
		assert.Equal(t, before, s)
	})

	t.Run("Submit While Awaiting Approval", func(t *testing.T) {
		reasoner := (&scriptedReasoner{}).
			expect(domain.PrimaryController, reply("", action("e1", "ToHotelBookingAssistant", nil))).
			expect("book_hotel", reply("", action("b1", "book_hotel", nil)))
		r, _ := build(t, reasoner, runtime.Config{})
		s := newSession(t)
		ctx := context.Background()

		_, err := r.Submit(ctx, s, "book")
		require.NoError(t, err)
		n := len(s.Conversation)

		_, err = r.Submit(ctx, s, "hello?")
		assert.ErrorIs(t, err, domain.ErrApprovalPending)
		assert.Len(t, s.Conversation, n)
		assert.Equal(t, domain.StatusAwaitingApproval, s.Status)
	})
}

func TestRouter_Hooks(t *testing.T) {
	reasoner := (&scriptedReasoner{}).
		expect(domain.PrimaryController, reply("", action("a1", "search_flights", map[string]any{"id": "LX0112"}))).
		expect(domain.PrimaryController, reply("Found it."))

	var events []string
	hooks := domain.LifecycleHooks{
		OnTurnStart:  func(_ context.Context, e *domain.TurnEvent) { events = append(events, "start:"+e.Controller) },
		OnToolCall:   func(_ context.Context, e *domain.ToolEvent) { events = append(events, "call:"+e.ToolName) },
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) { events = append(events, "return:"+e.Output) },
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			events = append(events, fmt.Sprintf("end:%s:%d", e.Outcome, e.Steps))
		},
	}
	r, _ := build(t, reasoner, runtime.Config{Hooks: hooks})

	_, err := r.Submit(context.Background(), newSession(t), "find LX0112")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start:" + domain.PrimaryController,
		"call:search_flights",
		"return:search_flights ok LX0112",
		"end:reply:2",
	}, events)
}

func TestBuild_Validation(t *testing.T) {
	reg, _ := testRegistry(t)
	reasoner := &scriptedReasoner{}

	t.Run("Unregistered Tool", func(t *testing.T) {
		descs := testDescriptors()
		descs[1].SafeTools = append(descs[1].SafeTools, "teleport")
		_, err := runtime.Build(descs, reasoner, reg, runtime.Config{})
		assert.ErrorIs(t, err, domain.ErrInvalidDescriptors)
	})

	t.Run("Duplicate Entry Tool", func(t *testing.T) {
		descs := testDescriptors()
		descs[2].EntryTool = descs[1].EntryTool
		_, err := runtime.Build(descs, reasoner, reg, runtime.Config{})
		assert.ErrorIs(t, err, domain.ErrInvalidDescriptors)
	})

	t.Run("Missing Primary", func(t *testing.T) {
		_, err := runtime.Build(testDescriptors()[1:], reasoner, reg, runtime.Config{})
		assert.ErrorIs(t, err, domain.ErrUnknownController)
	})

	t.Run("Entry Tools Offered To Primary", func(t *testing.T) {
		r, err := runtime.Build(testDescriptors(), reasoner, reg, runtime.Config{})
		require.NoError(t, err)
		c, ok := r.Controller(domain.PrimaryController)
		require.True(t, ok)
		names := toolNames(c.Tools())
		assert.Contains(t, names, "ToHotelBookingAssistant")
		assert.Contains(t, names, "ToFlightBookingAssistant")
		assert.NotContains(t, names, domain.EscalationTool)
	})
}

func toolNames(tools []domain.Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return strings.Join(names, ",")
}
