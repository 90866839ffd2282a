package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/csrf"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
)

const (
	CSRFFormField  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	preSessionCSRFCookie = "wodlog_csrf"
)

// CSRFCheck rejects state-changing requests whose CSRF token does not match
// the one stored in the session. Exempt paths are not bound to a session.
func CSRFCheck(metricsManager *metrics.Manager, exemptPaths ...string) func(next http.Handler) http.Handler {
	exempt := make(map[string]bool, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			session, ok := auth.SessionFromContext(r.Context())
			if !ok || !validToken(session.CSRFToken, submittedToken(r)) {
				log.Warnf("csrf check failed for [%s] %s", r.Method, r.URL.Path)
				if metricsManager != nil {
					metricsManager.CounterCSRFRejected.Inc()
				}
				http.Error(w, "forbidden, invalid csrf token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func submittedToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token
	}
	return r.PostFormValue(CSRFFormField)
}

func validToken(expected, submitted string) bool {
	if expected == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}

// PreSessionCSRF protects the forms served before there is a session (login, register)
// with a double submit cookie token. Other paths pass through untouched.
func PreSessionCSRF(authKey []byte, secure bool, metricsManager *metrics.Manager, paths ...string) func(next http.Handler) http.Handler {
	protected := make(map[string]bool, len(paths))
	for _, p := range paths {
		protected[p] = true
	}

	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName(preSessionCSRFCookie),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFormField),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warnf("pre-session csrf check failed for [%s] %s: %s", r.Method, r.URL.Path, csrf.FailureReason(r))
			if metricsManager != nil {
				metricsManager.CounterCSRFRejected.Inc()
			}
			http.Error(w, "forbidden, invalid csrf token", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protectedNext := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !protected[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				// no TLS, so no Origin/Referer scheme to check against
				r = csrf.PlaintextHTTPRequest(r)
			}
			protectedNext.ServeHTTP(w, r)
		})
	}
}
