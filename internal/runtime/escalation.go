package runtime

import "github.com/aretw0/switchboard/pkg/domain"

// Escalate pops the active specialized controller and, when the escalation was
// requested through an action, returns the acknowledgement that answers it.
// The pop is a no-op on an empty stack.
func Escalate(conv []domain.Message, stack *domain.DialogStack) *domain.ToolResult {
	stack.Pop()

	for _, a := range domain.Unanswered(conv) {
		if a.IsEscalation() {
			return &domain.ToolResult{
				ActionID: a.ID,
				Name:     a.Name,
				Text:     domain.EscalationAck,
			}
		}
	}
	return nil
}
