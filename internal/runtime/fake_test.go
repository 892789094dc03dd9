package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/stretchr/testify/require"
)

// scriptedReasoner replays canned replies and records every request it sees.
type scriptedReasoner struct {
	mu       sync.Mutex
	replies  []scripted
	requests []ports.ReasoningRequest
	fallback func(req ports.ReasoningRequest) (domain.Message, error)
}

type scripted struct {
	controller string
	reply      domain.Message
	err        error
}

func (s *scriptedReasoner) expect(controller string, reply domain.Message) *scriptedReasoner {
	s.replies = append(s.replies, scripted{controller: controller, reply: reply})
	return s
}

func (s *scriptedReasoner) fail(controller string, err error) *scriptedReasoner {
	s.replies = append(s.replies, scripted{controller: controller, err: err})
	return s
}

func (s *scriptedReasoner) Reason(ctx context.Context, req ports.ReasoningRequest) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.Conversation = domain.CloneConversation(req.Conversation)
	s.requests = append(s.requests, req)

	if len(s.replies) == 0 {
		if s.fallback != nil {
			return s.fallback(req)
		}
		return domain.Message{}, fmt.Errorf("unexpected reasoning call for %s", req.Controller)
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	if next.controller != req.Controller {
		return domain.Message{}, fmt.Errorf("expected call for %s, got %s", next.controller, req.Controller)
	}
	return next.reply, next.err
}

func (s *scriptedReasoner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *scriptedReasoner) request(i int) ports.ReasoningRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func action(id, name string, args map[string]any) domain.ActionRequest {
	return domain.ActionRequest{ID: id, Name: name, Arguments: args}
}

func reply(text string, actions ...domain.ActionRequest) domain.Message {
	return domain.ReplyMessage(text, actions...)
}

func testDescriptors() []domain.Descriptor {
	return []domain.Descriptor{
		{
			Name:        domain.PrimaryController,
			Description: "host assistant",
			Prompt:      "You are a travel assistant.\n<User>{{.UserInfo}}</User>\nCurrent time: {{.Time}}.",
			SafeTools:   []string{"fetch_user_flight_information", "search_flights"},
		},
		{
			Name:           "book_hotel",
			Description:    "Hotel Booking Assistant",
			Prompt:         "You book hotels.",
			EntryTool:      "ToHotelBookingAssistant",
			SafeTools:      []string{"search_hotels"},
			SensitiveTools: []string{"book_hotel", "cancel_hotel"},
		},
		{
			Name:           "update_flight",
			Description:    "Flight Updates & Booking Assistant",
			Prompt:         "You update flights.",
			EntryTool:      "ToFlightBookingAssistant",
			SafeTools:      []string{"search_flights"},
			SensitiveTools: []string{"update_ticket_to_new_flight"},
		},
	}
}

// toolLog counts executions per tool name.
type toolLog struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *toolLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func testRegistry(t *testing.T) (*registry.Registry, *toolLog) {
	t.Helper()
	log := &toolLog{calls: make(map[string]int)}
	reg := registry.New()
	for _, name := range []string{
		"fetch_user_flight_information", "search_flights", "search_hotels",
		"book_hotel", "cancel_hotel", "update_ticket_to_new_flight",
	} {
		name := name
		require.NoError(t, reg.Register(domain.Tool{Name: name}, func(ctx context.Context, args map[string]any) (string, error) {
			log.mu.Lock()
			log.calls[name]++
			log.mu.Unlock()
			return fmt.Sprintf("%s ok %v", name, args["id"]), nil
		}))
	}
	return reg, log
}

func newSession(t *testing.T) *domain.Session {
	t.Helper()
	s := domain.NewSession("sess-1")
	s.Context[domain.ContextUserID] = "3442 587242"
	return s
}

func build(t *testing.T, reasoner ports.Reasoner, cfg runtime.Config) (*runtime.Router, *toolLog) {
	t.Helper()
	reg, log := testRegistry(t)
	r, err := runtime.Build(testDescriptors(), reasoner, reg, cfg)
	require.NoError(t, err)
	return r, log
}

// requireAnswered asserts every action request in conv has exactly one result.
func requireAnswered(t *testing.T, conv []domain.Message) {
	t.Helper()
	require.Empty(t, domain.Unanswered(conv), "unanswered action requests")
	seen := make(map[string]int)
	for _, m := range conv {
		if m.Role == domain.RoleTool {
			seen[m.Result.ActionID]++
		}
	}
	for id, n := range seen {
		require.Equal(t, 1, n, "action %s answered %d times", id, n)
	}
}

func top(s *domain.Session) string {
	name, _ := s.Stack.Top()
	return name
}
