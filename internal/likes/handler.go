package likes

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=likes_mocks_test.go -package=likes_test

type likesRepo interface {
	Toggle(ctx context.Context, logID, userID int) (bool, error)
}

type Handler struct {
	repo           likesRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo likesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/like_result/{log_id}", handler.handleToggle).Methods("POST")
}

func (handler *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.likes.toggle")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	logID, ok := pkg.PathID(w, r, "log_id")
	if !ok {
		return
	}

	liked, err := handler.repo.Toggle(ctx, logID, session.UserID)
	if errors.Is(err, ErrLogNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Errorf("toggle like, log %d, user %d: %s", logID, session.UserID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	handler.metricsManager.CounterLikes.WithLabelValues(state).Inc()

	http.Redirect(w, r, backTo(r, "/log/"+strconv.Itoa(logID)), http.StatusSeeOther)
}

// backTo returns the path of the referring page, never another host.
func backTo(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || ref.Path[0] != '/' {
		return fallback
	}
	if ref.Host != "" && ref.Host != r.Host {
		return fallback
	}
	back := url.URL{Path: ref.Path, RawQuery: ref.RawQuery}
	return back.String()
}
