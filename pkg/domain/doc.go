/*
Package domain contains the core vocabulary of the switchboard dialog router.

It defines the conversation model shared by every controller, the dialog stack
that records which specialized controller holds control, and the session
snapshot persisted between turns. This package is kept pure and free of
external dependencies like I/O or persistence.

# Key Entities

  - Message: tagged variant of a conversation entry (user text, controller reply, tool result).
  - ActionRequest: a structured intent emitted by a controller (tool call, entry or escalation).
  - DialogStack: the stack of specialized controllers; empty means the primary controller is active.
  - Descriptor: immutable configuration of one controller (prompt, safe and sensitive tools).
  - Session: the durable state of one conversation, including a PendingApproval when suspended.
  - TurnResult: what the Turn API returns to the host (reply, awaiting approval, or fatal error).
*/
package domain
