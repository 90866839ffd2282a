package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/pkg"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			fields := log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"ip":       pkg.ReadUserIP(r),
				"duration": time.Since(start).String(),
			}
			if session, ok := auth.SessionFromContext(r.Context()); ok {
				fields["user_id"] = session.UserID
			}
			log.WithFields(fields).Trace("request served")
		})
	}
}
