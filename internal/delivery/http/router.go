package http

import (
	"net/http"

	"github.com/vramonlinebsc/hms/internal/delivery/http/handler"
	"github.com/vramonlinebsc/hms/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	appointmentHandler  *handler.AppointmentHandler
	doctorHandler       *handler.DoctorHandler
	auditLogHandler     *handler.AuditLogHandler
	operationHandler    *handler.OperationHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	operationHandler *handler.OperationHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		appointmentHandler:  appointmentHandler,
		doctorHandler:       doctorHandler,
		auditLogHandler:     auditLogHandler,
		operationHandler:    operationHandler,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	limit := r.rateLimitMiddleware.Limit

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Any authenticated actor; visibility is checked by the usecase
	shared := api.PathPrefix("/appointments").Subrouter()
	shared.Use(r.authMiddleware.Authenticate)
	shared.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)

	// Patient routes
	patient := api.PathPrefix("/patient").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("/appointments", limit("appointment.book", r.appointmentHandler.CreateAppointment)).Methods(http.MethodPost)
	patient.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	patient.HandleFunc("/appointments/{id}/cancel", limit("appointment.cancel", r.appointmentHandler.CancelByPatient)).Methods(http.MethodPatch)

	// Doctor routes
	doctor := api.PathPrefix("/doctor").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)
	doctor.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	doctor.HandleFunc("/appointments/{id}/complete", limit("appointment.complete", r.appointmentHandler.CompleteAppointment)).Methods(http.MethodPost)
	doctor.HandleFunc("/appointments/{id}/cancel", limit("appointment.cancel", r.appointmentHandler.CancelByDoctor)).Methods(http.MethodPatch)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{id}/cancel", limit("appointment.cancel", r.appointmentHandler.CancelByAdmin)).Methods(http.MethodPatch)
	admin.HandleFunc("/appointments/{id}/confirm-no-show", limit("appointment.no_show", r.appointmentHandler.ConfirmNoShow)).Methods(http.MethodPatch)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}/blacklist", limit("doctor.blacklist", r.doctorHandler.SetBlacklist)).Methods(http.MethodPatch)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)
	admin.HandleFunc("/penalties", r.operationHandler.ListPenalties).Methods(http.MethodGet)
	admin.HandleFunc("/no-shows/reconcile", limit("no_show.reconcile", r.operationHandler.ReconcileNoShows)).Methods(http.MethodPost)
	admin.HandleFunc("/penalties/run", limit("penalty.run", r.operationHandler.RunPenalties)).Methods(http.MethodPost)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
