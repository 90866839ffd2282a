package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "wodlog-session||"
	tokensSetKey     = "wodlog-sessions"

	sessionIDBytes = 33
	csrfTokenBytes = 32
)

var ErrSessionNotFound = errors.New("session not found")

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(n int) (string, error)
}

func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) TTL() time.Duration {
	return as.ttl
}

// Login creates a new session for the user, with a fresh CSRF token.
func (as *Service) Login(ctx context.Context, user SessionUser, createdAt time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessionID, err := as.RandStringFunc(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	csrfToken, err := as.RandStringFunc(csrfTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	session := &Session{
		ID:        sessionID,
		UserID:    user.ID,
		Username:  user.Username,
		IsCoach:   user.IsCoach,
		CSRFToken: csrfToken,
		CreatedAt: createdAt,
	}
	sessionJson, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := as.redisClient.Set(ctx, sessionKeyPrefix+sessionID, sessionJson, as.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, sessionID).Err(); err != nil {
		return nil, fmt.Errorf("track session: %w", err)
	}

	return session, nil
}

// Get loads a live session. Expired or unknown sessions give ErrSessionNotFound.
func (as *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	sessionJson, err := as.redisClient.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(sessionJson, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if time.Since(session.CreatedAt) > as.ttl {
		return nil, ErrSessionNotFound
	}

	session.ID = sessionID
	return &session, nil
}

func (as *Service) Logout(ctx context.Context, sessionID string) error {
	if err := as.redisClient.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, sessionID).Err(); err != nil {
		return fmt.Errorf("untrack session: %w", err)
	}

	return nil
}

// ScanAndClean will run through all tracked sessions and drop the expired ones.
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionIDs, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionIDs) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionIDs))
	var toRemove []string
	for _, sessionID := range sessionIDs {
		_, err := as.Get(ctx, sessionID)
		if errors.Is(err, ErrSessionNotFound) {
			toRemove = append(toRemove, sessionID)
			continue
		}
		if err != nil {
			log.Errorf("auth service, scan and clean session %s: %s", sessionID, err)
		}
	}

	for _, sessionID := range toRemove {
		if err := as.Logout(ctx, sessionID); err != nil {
			log.Errorf("auth service, clean session %s: %s", sessionID, err)
		}
	}
	log.Debugf("auth service, scan and clean done, removed %d sessions", len(toRemove))
}
