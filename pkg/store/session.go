package store

import "time"

// Turn roles. Providers map "assistant" to their own naming when needed.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the short-lived conversational memory for one opaque ID.
// Turns are insertion-ordered and capped; the whole session expires after
// a period of inactivity. Not persisted, so a restart clears all sessions.
type Session struct {
	ID         string    `json:"id"`
	Turns      []Turn    `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}
