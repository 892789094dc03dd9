package domain_test

import (
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_IsDegenerate(t *testing.T) {
	assert.True(t, domain.ReplyMessage("").IsDegenerate())
	assert.True(t, domain.ReplyMessage("   \n").IsDegenerate())
	assert.False(t, domain.ReplyMessage("hello").IsDegenerate())
	assert.False(t, domain.ReplyMessage("", domain.ActionRequest{ID: "1", Name: "search_hotels"}).IsDegenerate())
	assert.False(t, domain.UserMessage("").IsDegenerate(), "only controller replies can be degenerate")
}

func TestCloneConversation_DeepCopiesArguments(t *testing.T) {
	conv := []domain.Message{
		domain.ReplyMessage("", domain.ActionRequest{
			ID:        "call_1",
			Name:      "search_hotels",
			Arguments: map[string]any{"location": "Basel", "filters": map[string]any{"tier": "Luxury"}},
		}),
		domain.ResultMessage(domain.ToolResult{ActionID: "call_1", Text: "[]"}),
	}

	clone := domain.CloneConversation(conv)
	clone[0].Actions[0].Arguments["location"] = "Zurich"
	clone[0].Actions[0].Arguments["filters"].(map[string]any)["tier"] = "Midscale"
	clone[1].Result.Text = "changed"

	assert.Equal(t, "Basel", conv[0].Actions[0].Arguments["location"])
	assert.Equal(t, "Luxury", conv[0].Actions[0].Arguments["filters"].(map[string]any)["tier"])
	assert.Equal(t, "[]", conv[1].Result.Text)
}

func TestUnanswered(t *testing.T) {
	conv := []domain.Message{
		domain.UserMessage("book hotel 42"),
		domain.ReplyMessage("",
			domain.ActionRequest{ID: "a", Name: "search_hotels"},
			domain.ActionRequest{ID: "b", Name: "book_hotel"},
		),
		domain.ResultMessage(domain.ToolResult{ActionID: "a", Text: "ok"}),
	}

	open := domain.Unanswered(conv)
	require.Len(t, open, 1)
	assert.Equal(t, "b", open[0].ID)
}

func TestLastReply(t *testing.T) {
	_, ok := domain.LastReply([]domain.Message{domain.UserMessage("hi")})
	assert.False(t, ok)

	conv := []domain.Message{
		domain.ReplyMessage("first"),
		domain.UserMessage("again"),
		domain.ReplyMessage("second"),
	}
	last, ok := domain.LastReply(conv)
	require.True(t, ok)
	assert.Equal(t, "second", last.Text)
}

func TestSession_SnapshotIsIndependent(t *testing.T) {
	s := domain.NewSession("s1")
	s.Context[domain.ContextUserID] = "0000 000001"
	s.Stack.Push("book_hotel")
	s.Pending = &domain.PendingApproval{
		Controller: "book_hotel",
		Actions:    []domain.ActionRequest{{ID: "x", Name: "book_hotel", Arguments: map[string]any{"hotel_id": 42}}},
	}

	snap := s.Snapshot()
	snap.Stack.Pop()
	snap.Pending.Actions[0].Arguments["hotel_id"] = 7
	snap.Context[domain.ContextUserID] = "other"

	assert.Equal(t, "book_hotel", s.ActiveController(domain.PrimaryController))
	assert.Equal(t, domain.PrimaryController, snap.ActiveController(domain.PrimaryController))
	assert.Equal(t, 42, s.Pending.Actions[0].Arguments["hotel_id"])
	assert.Equal(t, "0000 000001", s.UserID())
}

func TestDescriptor_Validate(t *testing.T) {
	ok := domain.Descriptor{Name: "book_hotel", SafeTools: []string{"search_hotels"}, SensitiveTools: []string{"book_hotel"}}
	assert.NoError(t, ok.Validate())

	overlap := domain.Descriptor{Name: "x", SafeTools: []string{"t"}, SensitiveTools: []string{"t"}}
	assert.Error(t, overlap.Validate())

	reserved := domain.Descriptor{Name: "x", SafeTools: []string{domain.EscalationTool}}
	assert.Error(t, reserved.Validate())

	assert.Error(t, domain.Descriptor{}.Validate())
}
