package models

// Turn roles. Only these two appear in session history; tool traffic is
// never persisted.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single (role, text) pair in a session's conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
