package model

// Message is one entry of a chat conversation. The list is append-only
// during a turn; the trailing assistant message is mutated in place while
// deltas arrive.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
