package domain

// Meta actions and built-in controller names.
const (
	// EscalationTool is the meta action a specialized controller calls to hand control back.
	EscalationTool = "CompleteOrEscalate"

	// PrimaryController is the default name of the controller active on an empty stack.
	PrimaryController = "primary_assistant"
)

// Default limits.
const (
	DefaultMaxSteps    = 25
	DefaultMaxAttempts = 3
)

// Synthetic message texts.
const (
	CorrectiveNote = "Respond with a real output."

	EscalationAck = "Resuming dialog with the host assistant. Please reflect on the past conversation and assist the user as needed."

	EntryAnnouncement = "The assistant is now the %[1]s. Reflect on the above conversation between the host assistant and the user." +
		" The user's intent is unsatisfied. Use the provided tools to assist the user. Remember, you are %[1]s," +
		" and the booking, update, other other action is not complete until after you have successfully invoked the appropriate tool." +
		" If the user changes their mind or needs help for other tasks, call the CompleteOrEscalate function to let the primary host assistant take control." +
		" Do not mention who you are - just act as the proxy for the assistant."

	SkippedAction = "Not executed: %s was handled first in this batch."

	DenialWithReason = "API call denied by user. Reasoning: '%s'. Continue assisting, accounting for the user's input."

	DenialNoReason = "API call denied by user. Continue assisting, accounting for the user's input."
)
