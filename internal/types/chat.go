package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageUnavailable replaces the content of a stored message that can no
// longer be decrypted.
const MessageUnavailable = "[message unavailable]"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// PromptMessage is one turn handed to the language model.
type PromptMessage struct {
	Role    ChatRole
	Content string
}

// ChatMessageRecord is a stored, still encrypted chat message.
type ChatMessageRecord struct {
	ID         uuid.UUID
	TripID     uuid.UUID
	Role       ChatRole
	Ciphertext string
	CreatedAt  time.Time
}

type ChatMessage struct {
	ID          uuid.UUID `json:"id"`
	Role        ChatRole  `json:"role"`
	Content     string    `json:"content"`
	Unavailable bool      `json:"unavailable,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatRequest struct {
	Message string `json:"message" example:"Can we swap day 2 dinner for something vegetarian?"`
}

type ChatReply struct {
	Reply          string `json:"reply"`
	TurnsUsed      int    `json:"turns_used"`
	TurnsRemaining int    `json:"turns_remaining"`
	Locked         bool   `json:"locked"`
	Fallback       bool   `json:"fallback"`
}

type ChatHistory struct {
	TripID         uuid.UUID     `json:"trip_id"`
	Messages       []ChatMessage `json:"messages"`
	TurnsUsed      int           `json:"turns_used"`
	TurnsRemaining int           `json:"turns_remaining"`
	Locked         bool          `json:"locked"`
}
