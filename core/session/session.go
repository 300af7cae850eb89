package session

import (
	"context"
	"time"

	"ArtistStudio/model"
)

// Session is the authenticated caller as resolved from the access token.
type Session struct {
	UserID           int64      `json:"userId"`
	Username         string     `json:"username"`
	Role             model.Role `json:"role"`
	TokenID          string     `json:"-"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	SelectedArtistID string     `json:"selectedArtistId,omitempty"`
}

// Valid reports whether s identifies a user and has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID > 0 && (s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt))
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
