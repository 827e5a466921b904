package models

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation transcript.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// EmptyUserTurn returns the pending input slot that ends every transcript.
func EmptyUserTurn() Turn {
	return Turn{Role: RoleUser}
}

// IsBlank reports whether the turn has no content besides whitespace.
func (t Turn) IsBlank() bool {
	return strings.TrimSpace(t.Content) == ""
}
