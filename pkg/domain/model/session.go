package model

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// Session represents an authenticated user session
type Session struct {
	ID        types.SessionID     `json:"id" bson:"_id"`
	Secret    types.SessionSecret `json:"-" bson:"secret"`
	UserID    types.UserID        `json:"user_id" bson:"user_id"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time           `json:"expires_at" bson:"expires_at"`
}

// NewSession creates a new Session with UUID v7 ID and random Secret
func NewSession(userID types.UserID, duration time.Duration) (*Session, error) {
	// UUID v7 for time-ordered session IDs
	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	secret, err := generateRandomSecret(24)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        types.SessionID(sessionID.String()),
		Secret:    types.SessionSecret(secret),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}, nil
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid checks if the session is valid (not expired and has proper fields)
func (s *Session) IsValid() bool {
	return s.ID != "" && s.Secret != "" && s.UserID != "" && !s.IsExpired()
}

// generateRandomSecret generates a random base64-encoded string
func generateRandomSecret(byteLength int) (string, error) {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// URL-safe base64 without padding for cleaner cookie values
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
