package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.Context[domain.ContextUserID] = "0000 000001"
		session.Conversation = []domain.Message{
			domain.UserMessage("book hotel 42"),
			domain.ReplyMessage("", domain.ActionRequest{ID: "call_1", Name: "ToHotelBookingAssistant"}),
			domain.ResultMessage(domain.ToolResult{ActionID: "call_1", Text: "handoff"}),
			domain.ReplyMessage("", domain.ActionRequest{ID: "call_2", Name: "book_hotel", Arguments: map[string]any{"hotel_id": 42}}),
		}
		session.Stack.Push("book_hotel")
		session.Status = domain.StatusAwaitingApproval
		session.Pending = &domain.PendingApproval{
			Controller: "book_hotel",
			Actions:    session.Conversation[3].Actions,
			CreatedAt:  time.Now().UTC(),
		}

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StatusAwaitingApproval, loaded.Status)
		assert.Equal(t, "0000 000001", loaded.UserID())
		assert.Equal(t, domain.DialogStack{"book_hotel"}, loaded.Stack)
		require.Len(t, loaded.Conversation, 4)
		require.NotNil(t, loaded.Pending)
		require.Len(t, loaded.Pending.Actions, 1)
		assert.Equal(t, "call_2", loaded.Pending.Actions[0].ID)
		// JSON round trips may turn ints into float64, only presence is part of the contract.
		assert.NotNil(t, loaded.Pending.Actions[0].Arguments["hotel_id"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
