package router

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/auth"
	"workforce/backend/internal/middleware"
	"workforce/backend/internal/pkg/config"
	"workforce/backend/internal/pkg/repository/postgresql"
	"workforce/backend/internal/repository/postgres/attendance"
	auditrepo "workforce/backend/internal/repository/postgres/audit"
	"workforce/backend/internal/repository/postgres/shift"
	"workforce/backend/internal/repository/postgres/staff"
	"workforce/backend/internal/repository/redis/lock"
	"workforce/backend/internal/service/audit"
	"workforce/backend/internal/service/clock"
	"workforce/backend/internal/service/roster"
	"workforce/backend/internal/service/staffid"

	attendance_controller "workforce/backend/internal/controller/http/v1/attendance"
	auth_controller "workforce/backend/internal/controller/http/v1/auth"
	shift_controller "workforce/backend/internal/controller/http/v1/shift"
	staff_controller "workforce/backend/internal/controller/http/v1/staff"
)

const shutdownTimeout = 10 * time.Second

type Router struct {
	*web.App
	postgresDB  *postgresql.Database
	redisDB     *redis.Client
	port        string
	auth        *auth.Auth
	policy      config.Policy
	corsOrigins []string
}

// NewRouter wires repositories, services and controllers. redisDB may be nil,
// in which case shift writes are serialized in process only.
func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	port string,
	auth *auth.Auth,
	policy config.Policy,
	corsOrigins []string,
) *Router {
	return &Router{
		app,
		postgresDB,
		redisDB,
		port,
		auth,
		policy,
		corsOrigins,
	}
}

// Init registers the routes and serves until ctx is cancelled, then shuts
// the server down gracefully.
func (r Router) Init(ctx context.Context) error {
	r.Routes()

	srv := &http.Server{
		Addr:              r.port,
		Handler:           r.App,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Log().Printf("router : listening on %s", r.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serving http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	r.Log().Printf("router : shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return errors.Wrap(err, "shutting down http server")
	}
	return nil
}

// Routes registers every handler without starting the server.
func (r Router) Routes() {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORS(r.corsOrigins...))

	logger := r.Log()

	// - postgresql
	staffPostgres := staff.NewRepository(r.postgresDB)
	shiftPostgres := shift.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB)
	auditPostgres := auditrepo.NewRepository(r.postgresDB)

	// - services
	auditor := audit.NewDispatcher(logger, auditPostgres)
	engine := clock.NewEngine(logger, attendancePostgres, staffPostgres, auditor, r.policy.DebounceWindow)
	schedule := roster.NewService(logger, shiftPostgres, staffPostgres, r.shiftLocker(logger), auditor)
	allocator := staffid.NewAllocator(logger, staffPostgres, r.policy)
	staffService := staffid.NewService(logger, staffPostgres, allocator, auditor)

	// controller
	authController := auth_controller.NewController(staffService, r.auth)
	attendanceController := attendance_controller.NewController(engine)
	shiftController := shift_controller.NewController(schedule, staffPostgres)
	staffController := staff_controller.NewController(staffService)

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)
	r.Post("/api/v1/refresh-token", authController.RefreshToken)

	// #attendance
	r.Post("/api/v1/attendance/event", attendanceController.RecordEvent, middleware.Authenticate(r.auth))
	r.Post("/api/v1/attendance/override", attendanceController.Override, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/attendance/state/:staff_id", attendanceController.GetState, middleware.Authenticate(r.auth))
	r.Get("/api/v1/attendance/history/:staff_id", attendanceController.GetHistory, middleware.Authenticate(r.auth))

	// #shift
	r.Get("/api/v1/shift/list", shiftController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
	r.Get("/api/v1/shift/export", shiftController.Export, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
	r.Post("/api/v1/shift/create", shiftController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
	r.Put("/api/v1/shift/:id", shiftController.Update, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
	r.Delete("/api/v1/shift/:id", shiftController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))

	// #staff
	r.Post("/api/v1/staff/create", staffController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Get("/api/v1/staff/:id", staffController.GetDetailById, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
	r.Get("/api/v1/staff/:id/badge", staffController.GetBadge, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleManager))
}

func (r Router) shiftLocker(logger *log.Logger) roster.Locker {
	opts := lock.Options{
		TTL:      r.policy.ShiftLockTTL,
		Attempts: r.policy.ShiftLockAttempts,
		Backoff:  r.policy.ShiftLockBackoff,
	}

	if r.redisDB == nil {
		logger.Printf("router : redis not configured, shift locks are process local")
		return lock.NewLocal(opts)
	}
	return lock.NewRedis(r.redisDB, logger, opts)
}
