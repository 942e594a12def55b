package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the acting-user context passed into every mutating operation
type Session struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	StartedAt time.Time `json:"startedAt"`
}

// NewSession starts a session for username
func NewSession(username string) *Session {
	return &Session{
		ID:        uuid.New(),
		Username:  username,
		StartedAt: time.Now().UTC(),
	}
}
