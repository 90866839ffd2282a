package workouts

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/comments"
	"github.com/2beens/wodlog/internal/logs"
	"github.com/2beens/wodlog/internal/pagination"
	"github.com/2beens/wodlog/internal/programming"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/internal/uploads"
	"github.com/2beens/wodlog/internal/web"
	"github.com/2beens/wodlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=workouts_mocks_test.go -package=workouts_test

const maxMultipartMemory = 8 << 20

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Update(ctx context.Context, workout Workout) (string, error)
	Get(ctx context.Context, id int) (*Workout, error)
	Search(ctx context.Context, query string, page pagination.Page) ([]Workout, error)
	SearchCount(ctx context.Context, query string) (int, error)
}

type workoutLogsLister interface {
	ListForWorkout(ctx context.Context, workoutID int) ([]logs.Log, error)
}

type commentsRepo interface {
	Add(ctx context.Context, comment comments.Comment) (*comments.Comment, error)
	ListForWorkout(ctx context.Context, workoutID int) ([]comments.Comment, error)
}

type imageStore interface {
	Save(ctx context.Context, src io.Reader) (string, error)
	Delete(name string) error
}

type HandlerParams struct {
	Repo           workoutsRepo
	Logs           workoutLogsLister
	Comments       commentsRepo
	Images         imageStore
	Renderer       *web.Renderer
	MetricsManager *metrics.Manager
	PageSize       int
}

type Handler struct {
	repo           workoutsRepo
	logs           workoutLogsLister
	comments       commentsRepo
	images         imageStore
	renderer       *web.Renderer
	metricsManager *metrics.Manager
	pageSize       int
}

type formPage struct {
	Title  string
	Action string
	Form   Form
	Weeks  []string
	Error  string
}

type showPage struct {
	Workout  *Workout
	Logs     []logs.Log
	Comments []comments.Comment
	Error    string
}

type searchPage struct {
	Query   string
	Results []Workout
	Paging  pagination.Result
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		repo:           params.Repo,
		logs:           params.Logs,
		comments:       params.Comments,
		images:         params.Images,
		renderer:       params.Renderer,
		metricsManager: params.MetricsManager,
		pageSize:       params.PageSize,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/new_workout", handler.handleNewForm).Methods("GET")
	r.HandleFunc("/create_workout", handler.handleNewForm).Methods("GET")
	r.HandleFunc("/create_workout", handler.handleCreate).Methods("POST")
	r.HandleFunc("/workout/{id}", handler.handleShow).Methods("GET")
	r.HandleFunc("/workout/{id}", handler.handleComment).Methods("POST")
	r.HandleFunc("/edit_workout/{id}", handler.handleEdit).Methods("GET", "POST")
	r.HandleFunc("/find_workout", handler.handleFind).Methods("GET")
}

func (handler *Handler) handleNewForm(w http.ResponseWriter, r *http.Request) {
	handler.renderer.Render(w, r, http.StatusOK, "workout_form", formPage{
		Title:  "New workout",
		Action: "/create_workout",
		Form:   Form{Date: time.Now().Format(DateLayout), ProgrammingWeek: programming.Weeks[0]},
		Weeks:  programming.Weeks,
	})
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.create")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	page := formPage{Title: "New workout", Action: "/create_workout", Weeks: programming.Weeks}
	form, image, err := parseForm(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	page.Form = form
	if image != nil {
		defer image.Close()
	}

	workout, err := form.Workout()
	if err != nil {
		page.Error = err.Error()
		handler.renderer.Render(w, r, http.StatusOK, "workout_form", page)
		return
	}
	workout.UserID = session.UserID

	if image != nil {
		name, err := handler.images.Save(ctx, image)
		if err != nil {
			handler.imageError(w, r, page, err)
			return
		}
		workout.ImageFilename = name
	}

	added, err := handler.repo.Add(ctx, *workout)
	if err != nil {
		handler.discardImage(workout.ImageFilename)
		log.Errorf("create workout by %s: %s", session.Username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkouts.Inc()
	log.Debugf("new workout %d created by %s", added.ID, session.Username)

	http.Redirect(w, r, "/workout/"+strconv.Itoa(added.ID), http.StatusSeeOther)
}

func (handler *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.show")
	defer span.End()

	workout, ok := handler.loadWorkout(w, r)
	if !ok {
		return
	}
	handler.renderShow(ctx, w, r, workout, http.StatusOK, "")
}

func (handler *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.comment")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	workout, ok := handler.loadWorkout(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	text, err := comments.Validate(r.PostForm.Get("comment_text"))
	if err != nil {
		handler.renderShow(ctx, w, r, workout, http.StatusOK, err.Error())
		return
	}

	if _, err := handler.comments.Add(ctx, comments.Comment{
		WorkoutID: workout.ID,
		UserID:    session.UserID,
		Text:      text,
	}); err != nil {
		if errors.Is(err, comments.ErrWorkoutNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Errorf("add comment to workout %d: %s", workout.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterComments.Inc()
	http.Redirect(w, r, "/workout/"+strconv.Itoa(workout.ID), http.StatusSeeOther)
}

func (handler *Handler) renderShow(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	workout *Workout,
	status int,
	errMsg string,
) {
	workoutLogs, err := handler.logs.ListForWorkout(ctx, workout.ID)
	if err != nil {
		log.Errorf("show workout %d: list logs: %s", workout.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	workoutComments, err := handler.comments.ListForWorkout(ctx, workout.ID)
	if err != nil {
		log.Errorf("show workout %d: list comments: %s", workout.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.renderer.Render(w, r, status, "show_workout", showPage{
		Workout:  workout,
		Logs:     workoutLogs,
		Comments: workoutComments,
		Error:    errMsg,
	})
}

func (handler *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.edit")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if !session.IsCoach {
		log.Warnf("non-coach user %d tried to edit workout %s", session.UserID, mux.Vars(r)["id"])
		http.Error(w, "forbidden, only coaches can edit workouts", http.StatusForbidden)
		return
	}

	existing, ok := handler.loadWorkout(w, r)
	if !ok {
		return
	}

	editPath := "/edit_workout/" + strconv.Itoa(existing.ID)
	page := formPage{Title: "Edit workout", Action: editPath, Weeks: programming.Weeks}

	if r.Method == http.MethodGet {
		page.Form = FormFromWorkout(existing)
		handler.renderer.Render(w, r, http.StatusOK, "workout_form", page)
		return
	}

	form, image, err := parseForm(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	page.Form = form
	if image != nil {
		defer image.Close()
	}

	workout, err := form.Workout()
	if err != nil {
		page.Error = err.Error()
		handler.renderer.Render(w, r, http.StatusOK, "workout_form", page)
		return
	}
	workout.ID = existing.ID

	if image != nil {
		name, err := handler.images.Save(ctx, image)
		if err != nil {
			handler.imageError(w, r, page, err)
			return
		}
		workout.ImageFilename = name
	}

	previousImage, err := handler.repo.Update(ctx, *workout)
	if err != nil {
		handler.discardImage(workout.ImageFilename)
		if errors.Is(err, ErrWorkoutNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Errorf("edit workout %d: %s", existing.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	handler.discardImage(previousImage)

	log.Debugf("workout %d edited by coach %s", existing.ID, session.Username)
	http.Redirect(w, r, "/workout/"+strconv.Itoa(existing.ID), http.StatusSeeOther)
}

func (handler *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.find")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	page := searchPage{Query: query}
	if query == "" {
		handler.renderer.Render(w, r, http.StatusOK, "find_workout", page)
		return
	}
	// no stored description can match it
	if !pkg.StorableText(query) {
		page.Paging = pagination.NewResult(pagination.New(1, handler.pageSize), 0)
		handler.renderer.Render(w, r, http.StatusOK, "find_workout", page)
		return
	}

	p := pagination.FromRequest(r, handler.pageSize)
	results, err := handler.repo.Search(ctx, query, p)
	if err != nil {
		log.Errorf("search workouts [%s]: %s", query, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	total, err := handler.repo.SearchCount(ctx, query)
	if err != nil {
		log.Errorf("count search results [%s]: %s", query, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page.Results = results
	page.Paging = pagination.NewResult(p, total).WithBaseURL(&url.URL{
		Path:     "/find_workout",
		RawQuery: url.Values{"query": {query}}.Encode(),
	})
	handler.renderer.Render(w, r, http.StatusOK, "find_workout", page)
}

func (handler *Handler) loadWorkout(w http.ResponseWriter, r *http.Request) (*Workout, bool) {
	id, ok := pkg.PathID(w, r, "id")
	if !ok {
		return nil, false
	}
	workout, err := handler.repo.Get(r.Context(), id)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		log.Errorf("get workout %d: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return workout, true
}

func (handler *Handler) imageError(w http.ResponseWriter, r *http.Request, page formPage, err error) {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		page.Error = "image is too large"
	case errors.Is(err, uploads.ErrUnsupportedType):
		page.Error = "image must be a JPEG, PNG or WebP file"
	default:
		log.Errorf("save workout image: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	handler.renderer.Render(w, r, http.StatusOK, "workout_form", page)
}

func (handler *Handler) discardImage(name string) {
	if name == "" {
		return
	}
	if err := handler.images.Delete(name); err != nil {
		log.Errorf("delete workout image %s: %s", name, err)
	}
}

// parseForm reads the workout form, url-encoded or multipart. The image is nil when none was sent.
func parseForm(r *http.Request) (Form, multipart.File, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return Form{}, nil, err
	}

	form := Form{
		Date:            r.PostForm.Get("workout_date"),
		Warmup:          r.PostForm.Get("warmup_description"),
		WOD:             r.PostForm.Get("wod_description"),
		Extras:          r.PostForm.Get("extras_description"),
		ProgrammingWeek: r.PostForm.Get("programming_week"),
	}

	image, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return form, nil, nil
	}
	if err != nil {
		return Form{}, nil, err
	}
	return form, image, nil
}
