package logs

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/pagination"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/internal/web"
	"github.com/2beens/wodlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=logs_mocks_test.go -package=logs_test

const workoutChoices = 50

var errNoWorkoutChosen = errors.New("choose the workout to log first")

type logsRepo interface {
	Add(ctx context.Context, l Log) (*Log, error)
	Get(ctx context.Context, id int) (*Log, error)
	Update(ctx context.Context, l Log) error
	Remove(ctx context.Context, id, userID int) error
	ListPage(ctx context.Context, page pagination.Page) ([]Log, error)
	Count(ctx context.Context) (int, error)
	ListWorkoutRefs(ctx context.Context, limit int) ([]WorkoutRef, error)
	GetWorkoutRef(ctx context.Context, workoutID int) (*WorkoutRef, error)
}

type likesReader interface {
	Check(ctx context.Context, logID, userID int) (bool, error)
	Count(ctx context.Context, logID int) (int, error)
}

type Handler struct {
	repo           logsRepo
	likes          likesReader
	renderer       *web.Renderer
	metricsManager *metrics.Manager
	pageSize       int
}

type newLogPage struct {
	Workouts   []WorkoutRef
	SelectedID int
	Selected   *WorkoutRef
	Fixed      bool
	Action     string
	LogDate    string
	Notes      string
	Error      string
}

type showLogPage struct {
	Log        *Log
	Liked      bool
	LikesCount int
	IsOwner    bool
}

type editLogPage struct {
	Log *Log
	// Date is the date input value, kept as submitted when the form is re-rendered.
	Date  string
	Error string
}

type logsPage struct {
	Logs   []Log
	Paging pagination.Result
}

func NewHandler(
	repo logsRepo,
	likes likesReader,
	renderer *web.Renderer,
	metricsManager *metrics.Manager,
	pageSize int,
) *Handler {
	return &Handler{
		repo:           repo,
		likes:          likes,
		renderer:       renderer,
		metricsManager: metricsManager,
		pageSize:       pageSize,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/new_log", handler.handleNewLogForm).Methods("GET")
	r.HandleFunc("/new_log", handler.handleNewLogPost).Methods("POST")
	r.HandleFunc("/add_log/{workout_id}", handler.handleAddLogForm).Methods("GET")
	r.HandleFunc("/add_log/{workout_id}", handler.handleAddLogPost).Methods("POST")
	r.HandleFunc("/log/{id}", handler.handleShow).Methods("GET")
	r.HandleFunc("/edit_log/{id}", handler.handleEdit).Methods("GET", "POST")
	r.HandleFunc("/remove_log/{id}", handler.handleRemove).Methods("GET", "POST")
	r.HandleFunc("/logs", handler.handleList).Methods("GET")
}

func (handler *Handler) handleNewLogForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.newForm")
	defer span.End()

	page := newLogPage{Action: "/new_log", LogDate: time.Now().Format(dateLayout)}
	workouts, err := handler.repo.ListWorkoutRefs(ctx, workoutChoices)
	if err != nil {
		log.Errorf("new log: list workouts: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	page.Workouts = workouts

	handler.renderer.Render(w, r, http.StatusOK, "new_log", page)
}

// handleNewLogPost serves both steps of the form: select_wod picks the workout, save_log stores the log.
func (handler *Handler) handleNewLogPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.newPost")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	workouts, err := handler.repo.ListWorkoutRefs(ctx, workoutChoices)
	if err != nil {
		log.Errorf("new log: list workouts: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := newLogPage{
		Workouts: workouts,
		Action:   "/new_log",
		LogDate:  time.Now().Format(dateLayout),
	}

	workoutID, err := pkg.ParseID(r.PostForm.Get("workout_id"))
	if errors.Is(err, pkg.ErrUnknownID) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		page.Error = errNoWorkoutChosen.Error()
		handler.renderer.Render(w, r, http.StatusOK, "new_log", page)
		return
	}
	page.SelectedID = workoutID

	if r.PostForm.Get("save_log") == "" {
		selected, err := handler.repo.GetWorkoutRef(ctx, workoutID)
		if errors.Is(err, ErrWorkoutNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Errorf("new log: get workout %d: %s", workoutID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		page.Selected = selected
		handler.renderer.Render(w, r, http.StatusOK, "new_log", page)
		return
	}

	handler.saveLog(w, r, workoutID, page)
}

func (handler *Handler) handleAddLogForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.addForm")
	defer span.End()

	workoutID, ok := pkg.PathID(w, r, "workout_id")
	if !ok {
		return
	}

	selected, err := handler.repo.GetWorkoutRef(ctx, workoutID)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Errorf("add log: get workout %d: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.renderer.Render(w, r, http.StatusOK, "new_log", newLogPage{
		SelectedID: workoutID,
		Selected:   selected,
		Fixed:      true,
		Action:     "/add_log/" + strconv.Itoa(workoutID),
		LogDate:    time.Now().Format(dateLayout),
	})
}

func (handler *Handler) handleAddLogPost(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.addPost")
	defer span.End()

	workoutID, ok := pkg.PathID(w, r, "workout_id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	handler.saveLog(w, r, workoutID, newLogPage{
		SelectedID: workoutID,
		Fixed:      true,
		Action:     "/add_log/" + strconv.Itoa(workoutID),
	})
}

func (handler *Handler) saveLog(w http.ResponseWriter, r *http.Request, workoutID int, page newLogPage) {
	ctx := r.Context()
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	form := Form{Date: r.PostForm.Get("log_date"), Notes: r.PostForm.Get("log_notes")}
	date, notes, err := form.Parse()
	if err != nil {
		selected, refErr := handler.repo.GetWorkoutRef(ctx, workoutID)
		if errors.Is(refErr, ErrWorkoutNotFound) {
			http.NotFound(w, r)
			return
		}
		if refErr != nil {
			log.Errorf("save log: get workout %d: %s", workoutID, refErr)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		page.Selected = selected
		page.LogDate = form.Date
		page.Notes = form.Notes
		page.Error = err.Error()
		handler.renderer.Render(w, r, http.StatusOK, "new_log", page)
		return
	}

	added, err := handler.repo.Add(ctx, Log{
		Date:      date,
		Text:      notes,
		UserID:    session.UserID,
		WorkoutID: workoutID,
	})
	if errors.Is(err, ErrWorkoutNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Errorf("save log for workout %d, user %d: %s", workoutID, session.UserID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogs.Inc()
	log.Debugf("new log %d added for workout %d by %s", added.ID, workoutID, session.Username)

	http.Redirect(w, r, "/log/"+strconv.Itoa(added.ID), http.StatusSeeOther)
}

func (handler *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.show")
	defer span.End()

	l, ok := handler.loadLog(w, r)
	if !ok {
		return
	}

	likesCount, err := handler.likes.Count(ctx, l.ID)
	if err != nil {
		log.Errorf("show log %d: count likes: %s", l.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	session, _ := auth.SessionFromContext(ctx)
	page := showLogPage{Log: l, LikesCount: likesCount}
	if session != nil {
		page.IsOwner = session.UserID == l.UserID
		liked, err := handler.likes.Check(ctx, l.ID, session.UserID)
		if err != nil {
			log.Errorf("show log %d: check like: %s", l.ID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		page.Liked = liked
	}

	handler.renderer.Render(w, r, http.StatusOK, "show_log", page)
}

func (handler *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.edit")
	defer span.End()

	l, session, ok := handler.loadOwnLog(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		handler.renderer.Render(w, r, http.StatusOK, "edit_log", editLogPage{Log: l, Date: l.Date.Format(dateLayout)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := Form{Date: r.PostForm.Get("log_date"), Notes: r.PostForm.Get("log_notes")}
	date, notes, err := form.Parse()
	if err != nil {
		l.Text = form.Notes
		handler.renderer.Render(w, r, http.StatusOK, "edit_log", editLogPage{Log: l, Date: form.Date, Error: err.Error()})
		return
	}

	l.Date, l.Text = date, notes
	if err := handler.repo.Update(ctx, Log{ID: l.ID, Date: date, Text: notes, UserID: session.UserID}); err != nil {
		handler.ownershipError(w, r, l.ID, err)
		return
	}

	http.Redirect(w, r, "/log/"+strconv.Itoa(l.ID), http.StatusSeeOther)
}

func (handler *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.remove")
	defer span.End()

	l, session, ok := handler.loadOwnLog(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		handler.renderer.Render(w, r, http.StatusOK, "remove_log", editLogPage{Log: l})
		return
	}

	if err := handler.repo.Remove(ctx, l.ID, session.UserID); err != nil {
		handler.ownershipError(w, r, l.ID, err)
		return
	}

	log.Debugf("log %d removed by %s", l.ID, session.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.list")
	defer span.End()

	page := pagination.FromRequest(r, handler.pageSize)
	logs, err := handler.repo.ListPage(ctx, page)
	if err != nil {
		log.Errorf("list logs, page %d: %s", page.Number, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	total, err := handler.repo.Count(ctx)
	if err != nil {
		log.Errorf("count logs: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.renderer.Render(w, r, http.StatusOK, "logs", logsPage{
		Logs:   logs,
		Paging: pagination.NewResult(page, total).WithBaseURL(&url.URL{Path: "/logs"}),
	})
}

func (handler *Handler) loadLog(w http.ResponseWriter, r *http.Request) (*Log, bool) {
	id, ok := pkg.PathID(w, r, "id")
	if !ok {
		return nil, false
	}
	l, err := handler.repo.Get(r.Context(), id)
	if errors.Is(err, ErrLogNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		log.Errorf("get log %d: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return l, true
}

// loadOwnLog loads the log from the path and makes sure the viewer owns it.
func (handler *Handler) loadOwnLog(w http.ResponseWriter, r *http.Request) (*Log, *auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, nil, false
	}
	l, ok := handler.loadLog(w, r)
	if !ok {
		return nil, nil, false
	}
	if l.UserID != session.UserID {
		log.Warnf("user %d tried to change log %d of user %d", session.UserID, l.ID, l.UserID)
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, nil, false
	}
	return l, session, true
}

func (handler *Handler) ownershipError(w http.ResponseWriter, r *http.Request, id int, err error) {
	switch {
	case errors.Is(err, ErrLogNotFound):
		http.NotFound(w, r)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		log.Errorf("change log %d: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
