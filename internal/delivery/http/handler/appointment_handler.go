package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vramonlinebsc/hms/internal/converter"
	"github.com/vramonlinebsc/hms/internal/delivery/dto"
	"github.com/vramonlinebsc/hms/internal/delivery/http/middleware"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/usecase"
	"github.com/vramonlinebsc/hms/pkg/response"
	"github.com/vramonlinebsc/hms/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), actor, usecase.BookRequest{
		DoctorID: req.DoctorID,
		Window:   entity.Window{Start: req.StartAt, End: req.EndAt},
	})
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", converter.AppointmentToResponse(appointment))
}

// ListAppointments serves the patient, doctor and admin listings; the usecase
// scopes results to the actor. Query: status, date (YYYY-MM-DD).
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	filter := entity.AppointmentFilter{
		Status: entity.AppointmentStatus(r.URL.Query().Get("status")),
	}
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", nil)
			return
		}
		filter.Date = &day
	}

	appointments, err := h.appointmentUsecase.List(r.Context(), actor, filter)
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	})
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Get(r.Context(), actor, id)
	if err != nil {
		response.AppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", converter.AppointmentToResponse(appointment))
}

func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, changed, err := h.appointmentUsecase.Complete(r.Context(), actor, id, req.Diagnosis, req.Treatment)
	h.writeTransition(w, appointment, changed, err, "Appointment completed")
}

func (h *AppointmentHandler) CancelByPatient(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	appointment, changed, err := h.appointmentUsecase.CancelByRequester(r.Context(), actor, id)
	h.writeTransition(w, appointment, changed, err, "Appointment cancelled")
}

func (h *AppointmentHandler) CancelByDoctor(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	appointment, changed, err := h.appointmentUsecase.CancelByResource(r.Context(), actor, id)
	h.writeTransition(w, appointment, changed, err, "Appointment cancelled")
}

func (h *AppointmentHandler) CancelByAdmin(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	appointment, changed, err := h.appointmentUsecase.CancelByAdmin(r.Context(), actor, id)
	h.writeTransition(w, appointment, changed, err, "Appointment cancelled")
}

func (h *AppointmentHandler) ConfirmNoShow(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	appointment, changed, err := h.appointmentUsecase.MarkNoShow(r.Context(), actor, id)
	h.writeTransition(w, appointment, changed, err, "Appointment marked as no-show")
}

func (h *AppointmentHandler) actorAndID(w http.ResponseWriter, r *http.Request) (entity.Actor, uuid.UUID, bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return entity.Actor{}, uuid.Nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return entity.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func (h *AppointmentHandler) writeTransition(w http.ResponseWriter, appointment *entity.Appointment, changed bool, err error, message string) {
	if err != nil {
		response.AppError(w, err)
		return
	}
	if !changed {
		message += " (already applied)"
	}
	response.Success(w, http.StatusOK, message, converter.TransitionToResponse(appointment, changed))
}
