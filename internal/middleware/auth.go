package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=middleware_mocks_test.go -package=middleware_test

type sessionGetter interface {
	Get(ctx context.Context, sessionID string) (*auth.Session, error)
}

type AuthMiddlewareHandler struct {
	sessions             sessionGetter
	cookies              *auth.CookieSigner
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string
}

func NewAuthMiddlewareHandler(
	sessions sessionGetter,
	cookies *auth.CookieSigner,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		sessions: sessions,
		cookies:  cookies,
		allowedPaths: map[string]bool{
			"/login":    true,
			"/logout":   true,
			"/register": true,
			"/create":   true,
			"/healthz":  true,
		},
		allowedPathsPrefixes: []string{
			"/images/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthCheck attaches the session of the request (if any) to the request context,
// and redirects to the login page when a protected path is requested without one.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			session := h.loadSession(ctx, w, r)
			if session != nil {
				span.SetAttributes(attribute.Int("user.id", session.UserID))
				r = r.WithContext(auth.WithSession(r.Context(), session))
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "public")
				next.ServeHTTP(w, r)
				return
			}

			log.Tracef("[auth middleware] no session => %s", r.URL.Path)
			span.SetStatus(codes.Error, "not-logged")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}

func (h *AuthMiddlewareHandler) loadSession(ctx context.Context, w http.ResponseWriter, r *http.Request) *auth.Session {
	if _, err := r.Cookie(auth.SessionCookieName); err != nil {
		return nil
	}

	sessionID, err := h.cookies.SessionID(r)
	if err != nil {
		log.Debugf("[auth middleware] bad session cookie => %s: %s", r.URL.Path, err)
		http.SetCookie(w, h.cookies.ExpiredCookie())
		return nil
	}

	session, err := h.sessions.Get(ctx, sessionID)
	if errors.Is(err, auth.ErrSessionNotFound) {
		http.SetCookie(w, h.cookies.ExpiredCookie())
		return nil
	}
	if err != nil {
		log.Errorf("[auth middleware] get session => %s: %s", r.URL.Path, err)
		return nil
	}

	return session
}
