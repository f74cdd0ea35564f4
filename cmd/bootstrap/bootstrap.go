package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHttp "github.com/vramonlinebsc/hms/internal/delivery/http"
	"github.com/vramonlinebsc/hms/internal/delivery/http/handler"
	"github.com/vramonlinebsc/hms/internal/delivery/http/middleware"
	"github.com/vramonlinebsc/hms/internal/infrastructure/cache"
	"github.com/vramonlinebsc/hms/internal/infrastructure/database"
	"github.com/vramonlinebsc/hms/internal/infrastructure/queue"
	"github.com/vramonlinebsc/hms/internal/notification"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/internal/worker"
	"github.com/vramonlinebsc/hms/pkg/jwt"
	"github.com/vramonlinebsc/hms/pkg/validator"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	*Core
	RedisClient *redis.Client
	Server      *http.Server
	Scheduler   *worker.Scheduler
	Worker      *worker.NotificationWorker

	memoryLimiter *service.MemoryRateLimiter
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	core, err := NewCore()
	if err != nil {
		return nil, err
	}
	app := &App{Core: core}

	if err := database.Migrate(core.DB); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	limiter, err := app.newRateLimiter()
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Server = app.initializeServer(limiter)

	app.Scheduler, err = worker.NewScheduler(core.Log, core.NoShowUsecase, core.PenaltyUsecase,
		core.Config.NoShow.Interval, core.Config.Penalty.Interval)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Worker = worker.NewNotificationWorker(
		queue.RedisOpt(core.Config.Redis),
		core.Config.Notification.Concurrency,
		app.newSender(),
		core.Log,
	)

	return app, nil
}

func (app *App) newRateLimiter() (service.RateLimiter, error) {
	cfg := app.Config.RateLimit
	if cfg.Backend == "redis" {
		redisClient, err := cache.NewRedisClient(app.Config.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		return service.NewRedisRateLimiter(redisClient, app.Clock, cfg.Window, cfg.Max), nil
	}

	app.memoryLimiter = service.NewMemoryRateLimiter(app.Clock, cfg.Window, cfg.Max, app.Log)
	return app.memoryLimiter, nil
}

func (app *App) newSender() *notification.Sender {
	cfg := app.Config.Notification

	var transport notification.Transport
	switch cfg.Transport {
	case "smtp":
		transport = notification.NewSMTPTransport(cfg.SMTP)
	default:
		transport = notification.NewLogTransport(app.Log)
	}
	return notification.NewSender(transport, cfg.MaxAttempts, cfg.BackoffBase, app.Log)
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(limiter service.RateLimiter) *http.Server {
	jwtService := jwt.NewJWTService(app.Config.JWT)
	customValidator := validator.NewValidator()

	// Initialize handlers
	appointmentHandler := handler.NewAppointmentHandler(app.AppointmentUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(app.DoctorUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(app.AuditLogUsecase)
	operationHandler := handler.NewOperationHandler(app.NoShowUsecase, app.PenaltyUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, app.Log)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, app.Log)
	corsMiddleware := middleware.NewCORSMiddleware(app.Config.App.CORSOrigin)

	router := deliveryHttp.NewRouter(appointmentHandler, doctorHandler, auditLogHandler, operationHandler,
		authMiddleware, rateLimitMiddleware, corsMiddleware)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Config.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server, the notification worker and the scheduler, and
// stops all of them on SIGINT/SIGTERM or when any one fails.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Worker.Start(); err != nil {
		app.Close()
		return err
	}
	app.Scheduler.Start()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		app.Log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			app.Log.Errorf("Server forced to shutdown: %v", err)
		}
		app.Scheduler.Stop(shutdownCtx)
		app.Worker.Shutdown()
		return nil
	})

	err := g.Wait()
	app.Close()
	app.Log.Info("Server shutdown complete")
	return err
}

// Close closes all connections (database, redis, queue)
func (app *App) Close() {
	if app.memoryLimiter != nil {
		app.memoryLimiter.Stop()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
	app.Core.Close()
}
