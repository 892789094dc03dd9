package domain

import "encoding/json"

// DialogStack records which specialized controllers hold control.
// An empty stack means the primary controller is active.
// The primary controller is never pushed.
type DialogStack []string

// Push makes name the active controller.
func (s *DialogStack) Push(name string) {
	if name == "" {
		return
	}
	*s = append(*s, name)
}

// Pop removes the active frame. Popping an empty stack is a no-op.
func (s *DialogStack) Pop() (string, bool) {
	n := len(*s)
	if n == 0 {
		return "", false
	}
	top := (*s)[n-1]
	if n == 1 {
		*s = nil
	} else {
		*s = (*s)[:n-1]
	}
	return top, true
}

// Top returns the active specialized controller, if any.
func (s DialogStack) Top() (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// Clone returns an independent copy.
func (s DialogStack) Clone() DialogStack {
	if len(s) == 0 {
		return nil
	}
	out := make(DialogStack, len(s))
	copy(out, s)
	return out
}

// MarshalJSON always renders an array so that an emptied stack and a fresh one
// serialize identically.
func (s DialogStack) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
