package users

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/internal/web"
	"github.com/2beens/wodlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=users_mocks_test.go -package=users_test

type usersRepo interface {
	Create(ctx context.Context, username, passwordHash string, isCoach bool) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type sessionStore interface {
	Login(ctx context.Context, user auth.SessionUser, createdAt time.Time) (*auth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type HandlerParams struct {
	Repo           usersRepo
	Sessions       sessionStore
	Cookies        *auth.CookieSigner
	Renderer       *web.Renderer
	MetricsManager *metrics.Manager
	// bcrypt cost, pkg.PasswordHashCost when zero
	PasswordHashCost int
}

type Handler struct {
	repo           usersRepo
	sessions       sessionStore
	cookies        *auth.CookieSigner
	renderer       *web.Renderer
	metricsManager *metrics.Manager
	hashCost       int
}

type registerPage struct {
	Username string
	IsCoach  bool
	Error    string
}

type loginPage struct {
	Username string
	Error    string
}

func NewHandler(params HandlerParams) *Handler {
	hashCost := params.PasswordHashCost
	if hashCost == 0 {
		hashCost = pkg.PasswordHashCost
	}
	return &Handler{
		repo:           params.Repo,
		sessions:       params.Sessions,
		cookies:        params.Cookies,
		renderer:       params.Renderer,
		metricsManager: params.MetricsManager,
		hashCost:       hashCost,
	}
}

// SetupRoutes registers the account routes. loginLimiter wraps the login form submission.
func (handler *Handler) SetupRoutes(r *mux.Router, loginLimiter mux.MiddlewareFunc) {
	r.HandleFunc("/register", handler.handleRegisterForm).Methods("GET")
	r.HandleFunc("/create", handler.handleCreate).Methods("POST")
	r.HandleFunc("/login", handler.handleLoginForm).Methods("GET")
	r.Handle("/login", loginLimiter(http.HandlerFunc(handler.handleLoginPost))).Methods("POST")
	r.HandleFunc("/logout", handler.handleLogout).Methods("GET")
}

func (handler *Handler) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	handler.renderer.Render(w, r, http.StatusOK, "register", registerPage{})
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.create")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	reg := Registration{
		Username:  strings.TrimSpace(r.PostForm.Get("username")),
		Password1: r.PostForm.Get("password1"),
		Password2: r.PostForm.Get("password2"),
		IsCoach:   r.PostForm.Get("is_coach") != "",
	}
	page := registerPage{Username: reg.Username, IsCoach: reg.IsCoach}

	if err := reg.Validate(); err != nil {
		page.Error = err.Error()
		handler.renderer.Render(w, r, http.StatusOK, "register", page)
		return
	}

	hash, err := pkg.HashPasswordWithCost(reg.Password1, handler.hashCost)
	if err != nil {
		log.Errorf("register [%s]: hash password: %s", reg.Username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Create(ctx, reg.Username, hash, reg.IsCoach)
	if errors.Is(err, ErrUsernameTaken) {
		page.Error = ErrUsernameTaken.Error()
		handler.renderer.Render(w, r, http.StatusOK, "register", page)
		return
	}
	if err != nil {
		log.Errorf("register [%s]: %s", reg.Username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterRegistrations.Inc()
	log.Infof("new user registered: %s [%d], coach: %t", user.Username, user.ID, user.IsCoach)

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (handler *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	handler.renderer.Render(w, r, http.StatusOK, "login", loginPage{})
}

func (handler *Handler) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	user, err := handler.checkCredentials(ctx, username, password)
	if errors.Is(err, ErrBadCredentials) {
		handler.metricsManager.CounterLogins.WithLabelValues("failed").Inc()
		log.Debugf("failed login attempt for [%s] from %s", username, pkg.ReadUserIP(r))
		handler.renderer.Render(w, r, http.StatusOK, "login", loginPage{
			Username: username,
			Error:    ErrBadCredentials.Error(),
		})
		return
	}
	if err != nil {
		log.Errorf("login [%s]: %s", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	session, err := handler.sessions.Login(ctx, auth.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		IsCoach:  user.IsCoach,
	}, time.Now())
	if err != nil {
		log.Errorf("login [%s]: create session: %s", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	cookie, err := handler.cookies.Cookie(session)
	if err != nil {
		log.Errorf("login [%s]: sign cookie: %s", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.WithLabelValues("success").Inc()
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (handler *Handler) checkCredentials(ctx context.Context, username, password string) (*User, error) {
	if !ValidUsername(username) || password == "" {
		return nil, ErrBadCredentials
	}
	user, err := handler.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !pkg.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	if session, ok := auth.SessionFromContext(ctx); ok {
		if err := handler.sessions.Logout(ctx, session.ID); err != nil {
			log.Errorf("logout [%s]: %s", session.Username, err)
		}
	}

	http.SetCookie(w, handler.cookies.ExpiredCookie())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
