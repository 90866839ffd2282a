// Package dashboard serves the home page and public user profiles.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/logs"
	"github.com/2beens/wodlog/internal/pagination"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/internal/users"
	"github.com/2beens/wodlog/internal/web"
	"github.com/2beens/wodlog/internal/workouts"
	"github.com/2beens/wodlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=dashboard_mocks_test.go -package=dashboard_test

const recentItems = 20

type workoutsLister interface {
	List(ctx context.Context, page pagination.Page) ([]workouts.Workout, error)
	Count(ctx context.Context) (int, error)
	ListByUser(ctx context.Context, userID, limit int) ([]workouts.Workout, error)
}

type logsLister interface {
	ListByUser(ctx context.Context, userID, limit int) ([]logs.Log, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id int) (*users.User, error)
}

type Handler struct {
	workouts workoutsLister
	logs     logsLister
	users    userGetter
	renderer *web.Renderer
	pageSize int
}

type indexPage struct {
	UserWorkouts []workouts.Workout
	UserLogs     []logs.Log
	Workouts     []workouts.Workout
	Paging       pagination.Result
}

type userPage struct {
	User     *users.User
	Workouts []workouts.Workout
	Logs     []logs.Log
}

func NewHandler(
	workouts workoutsLister,
	logs logsLister,
	users userGetter,
	renderer *web.Renderer,
	pageSize int,
) *Handler {
	return &Handler{
		workouts: workouts,
		logs:     logs,
		users:    users,
		renderer: renderer,
		pageSize: pageSize,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/", handler.handleIndex).Methods("GET")
	r.HandleFunc("/user/{id}", handler.handleUser).Methods("GET")
}

func (handler *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.index")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	userWorkouts, err := handler.workouts.ListByUser(ctx, session.UserID, recentItems)
	if err != nil {
		handler.internalError(w, "list user workouts", err)
		return
	}
	userLogs, err := handler.logs.ListByUser(ctx, session.UserID, recentItems)
	if err != nil {
		handler.internalError(w, "list user logs", err)
		return
	}

	page := pagination.FromRequest(r, handler.pageSize)
	allWorkouts, err := handler.workouts.List(ctx, page)
	if err != nil {
		handler.internalError(w, "list workouts", err)
		return
	}
	total, err := handler.workouts.Count(ctx)
	if err != nil {
		handler.internalError(w, "count workouts", err)
		return
	}

	handler.renderer.Render(w, r, http.StatusOK, "index", indexPage{
		UserWorkouts: userWorkouts,
		UserLogs:     userLogs,
		Workouts:     allWorkouts,
		Paging:       pagination.NewResult(page, total).WithBaseURL(&url.URL{Path: "/"}),
	})
}

func (handler *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.user")
	defer span.End()

	id, ok := pkg.PathID(w, r, "id")
	if !ok {
		return
	}

	user, err := handler.users.GetByID(ctx, id)
	if errors.Is(err, users.ErrUserNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		handler.internalError(w, "get user", err)
		return
	}

	userWorkouts, err := handler.workouts.ListByUser(ctx, id, recentItems)
	if err != nil {
		handler.internalError(w, "list user workouts", err)
		return
	}
	userLogs, err := handler.logs.ListByUser(ctx, id, recentItems)
	if err != nil {
		handler.internalError(w, "list user logs", err)
		return
	}

	handler.renderer.Render(w, r, http.StatusOK, "user", userPage{
		User:     user,
		Workouts: userWorkouts,
		Logs:     userLogs,
	})
}

func (handler *Handler) internalError(w http.ResponseWriter, what string, err error) {
	log.Errorf("dashboard: %s: %s", what, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
