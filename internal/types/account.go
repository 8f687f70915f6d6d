package types

import "github.com/google/uuid"

// Account is the authenticated caller, resolved by the auth middleware.
type Account struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Response is the generic envelope for simple acknowledgements.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
