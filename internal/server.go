package internal

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/internal/comments"
	"github.com/2beens/wodlog/internal/config"
	"github.com/2beens/wodlog/internal/dashboard"
	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/likes"
	"github.com/2beens/wodlog/internal/logs"
	"github.com/2beens/wodlog/internal/middleware"
	"github.com/2beens/wodlog/internal/telemetry/metrics"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/internal/uploads"
	"github.com/2beens/wodlog/internal/users"
	"github.com/2beens/wodlog/internal/web"
	"github.com/2beens/wodlog/internal/workouts"
	"github.com/2beens/wodlog/pkg"
)

// extra room on top of the image size, for the other form fields
const formOverheadBytes = 1 << 20

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	authService *auth.Service
	cookies     *auth.CookieSigner
	csrfKey     []byte
	renderer    *web.Renderer
	images      *uploads.DiskStore

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	SecretKey               string
	PostgresPassword        string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

// DBPoolParams maps the postgres part of the config to pool params.
func DBPoolParams(cfg *config.Config, password string, tracingEnabled bool) db.NewDBPoolParams {
	return db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     password,
		MaxConns:       cfg.PostgresMaxConns,
		LockTimeout:    cfg.PostgresLockTimeout.Duration,
		TracingEnabled: tracingEnabled,
	}
}

// preSessionCSRFKey derives the key signing the pre-session csrf cookie.
func preSessionCSRFKey(secretKey string) []byte {
	sum := sha256.Sum256([]byte("wodlog-csrf:" + secretKey))
	return sum[:]
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	cookies, err := auth.NewCookieSigner(params.SecretKey, cfg.SessionTTL.Duration, cfg.SecureCookies)
	if err != nil {
		return nil, fmt.Errorf("new cookie signer: %w", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	images, err := uploads.NewDiskStore(cfg.UploadsPath, cfg.MaxUploadSizeBytes())
	if err != nil {
		return nil, fmt.Errorf("new uploads store: %w", err)
	}

	dbPool, err := db.NewDBPool(ctx, DBPoolParams(cfg, params.PostgresPassword, params.HoneycombTracingEnabled))
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("wodlog", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(cfg.SessionTTL.Duration, rdb)
	go func() {
		ticker := time.NewTicker(cfg.SessionCleanInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authService.ScanAndClean(ctx)
			}
		}
	}()

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "wodlog", rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		redisClient: rdb,
		authService: authService,
		cookies:     cookies,
		csrfKey:     preSessionCSRFKey(params.SecretKey),
		renderer:    renderer,
		images:      images,

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("wodlog-router"))

	usersRepo := users.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	logsRepo := logs.NewRepo(s.dbPool)
	likesRepo := likes.NewRepo(s.dbPool)

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	usersHandler := users.NewHandler(users.HandlerParams{
		Repo:           usersRepo,
		Sessions:       s.authService,
		Cookies:        s.cookies,
		Renderer:       s.renderer,
		MetricsManager: s.metricsManager,
	})
	usersHandler.SetupRoutes(r, middleware.RateLimit(
		reqRateLimiter,
		"login",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))

	dashboard.NewHandler(
		workoutsRepo,
		logsRepo,
		users.NewCachedRepo(usersRepo),
		s.renderer,
		s.config.PageSize,
	).SetupRoutes(r)

	workouts.NewHandler(workouts.HandlerParams{
		Repo:           workoutsRepo,
		Logs:           logsRepo,
		Comments:       comments.NewRepo(s.dbPool),
		Images:         s.images,
		Renderer:       s.renderer,
		MetricsManager: s.metricsManager,
		PageSize:       s.config.PageSize,
	}).SetupRoutes(r)

	logs.NewHandler(
		logsRepo,
		likesRepo,
		s.renderer,
		s.metricsManager,
		s.config.PageSize,
	).SetupRoutes(r)

	likes.NewHandler(likesRepo, s.metricsManager).SetupRoutes(r)
	uploads.NewHandler(s.images).SetupRoutes(r)

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET").Name("healthz")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService, s.cookies)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.LimitRequestBody(2*s.images.MaxBytes() + formOverheadBytes))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.CSRFCheck(s.metricsManager, "/login", "/create"))
	r.Use(middleware.PreSessionCSRF(s.csrfKey, s.config.SecureCookies, s.metricsManager, "/login", "/register", "/create"))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := multierr.Combine(
		s.dbPool.Ping(ctx),
		s.redisClient.Ping(ctx).Err(),
	)
	if err != nil {
		log.Errorf("health check: %s", err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	pkg.WriteTextResponseOK(w, "ok")
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.InstrumentMetricHandler(
			s.promRegistry,
			promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
