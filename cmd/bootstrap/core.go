package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/vramonlinebsc/hms/config"
	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/domain/repository"
	"github.com/vramonlinebsc/hms/internal/infrastructure/database"
	"github.com/vramonlinebsc/hms/internal/infrastructure/queue"
	"github.com/vramonlinebsc/hms/internal/notification"
	repositoryImpl "github.com/vramonlinebsc/hms/internal/repository"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/internal/usecase"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Core is the scheduling core without any transport: store, queue and the
// usecases built on them. The HTTP server and hmsctl both start from it.
type Core struct {
	Config      *config.Config
	Log         *logrus.Logger
	Clock       clock.Clock
	DB          *gorm.DB
	AsynqClient *asynq.Client

	AppointmentRepo repository.AppointmentRepository

	AppointmentUsecase usecase.AppointmentUsecase
	NoShowUsecase      usecase.NoShowUsecase
	PenaltyUsecase     usecase.PenaltyUsecase
	DoctorUsecase      usecase.DoctorUsecase
	AuditLogUsecase    usecase.AuditLogUsecase
}

// NewCore loads configuration and connects the store and the queue.
func NewCore() (*Core, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := NewLogger(cfg.App.LogLevel)
	log.Info("Configuration loaded successfully")

	db, err := database.NewConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Infof("Database connected successfully (driver=%s)", cfg.DB.Driver)

	asynqClient := queue.NewClient(cfg.Redis)

	core := BuildCore(cfg, log, clock.New(), db, notification.NewAsynqQueue(asynqClient, log))
	core.AsynqClient = asynqClient
	return core, nil
}

// BuildCore wires repositories and usecases over an open store and queue.
func BuildCore(cfg *config.Config, log *logrus.Logger, clk clock.Clock, db *gorm.DB, q notification.Queue) *Core {
	// Initialize repositories
	appointmentRepo := repositoryImpl.NewAppointmentRepository()
	doctorProfileRepo := repositoryImpl.NewDoctorProfileRepository()
	penaltyRepo := repositoryImpl.NewPenaltyRepository()
	auditLogRepo := repositoryImpl.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	conflictChecker := service.NewConflictChecker(clk, appointmentRepo)

	// Initialize usecases
	penaltyUsecase := usecase.NewPenaltyUsecase(db, log, penaltyRepo, q, cfg.Penalty.Fee)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, clk, appointmentRepo, doctorProfileRepo, conflictChecker, auditService, penaltyUsecase)
	grace := time.Duration(cfg.NoShow.GraceMinutes) * time.Minute
	noShowUsecase := usecase.NewNoShowUsecase(db, log, clk, grace, appointmentRepo, appointmentUsecase, penaltyUsecase)

	return &Core{
		Config:             cfg,
		Log:                log,
		Clock:              clk,
		DB:                 db,
		AppointmentRepo:    appointmentRepo,
		AppointmentUsecase: appointmentUsecase,
		NoShowUsecase:      noShowUsecase,
		PenaltyUsecase:     penaltyUsecase,
		DoctorUsecase:      usecase.NewDoctorUsecase(db, log, doctorProfileRepo, auditService),
		AuditLogUsecase:    usecase.NewAuditLogUsecase(db, log, auditLogRepo),
	}
}

// Close closes all connections (database, queue)
func (c *Core) Close() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			c.Log.Warnf("Failed to close queue client: %v", err)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// NewLogger configures the logrus logger
func NewLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
