package auth

import (
	"context"
	"time"
)

// Session is the server side state of a logged-in user, stored in redis.
type Session struct {
	ID        string    `json:"-"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	IsCoach   bool      `json:"is_coach"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionUser struct {
	ID       int
	Username string
	IsCoach  bool
}

type sessionCtxKey struct{}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session attached to the request context, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok && session != nil
}
