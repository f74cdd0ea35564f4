package converter

import (
	"github.com/vramonlinebsc/hms/internal/delivery/dto"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:        appointment.ID,
		DoctorID:  appointment.DoctorID,
		PatientID: appointment.PatientID,
		StartAt:   appointment.StartAt,
		EndAt:     appointment.EndAt,
		Status:    string(appointment.Status),
		Diagnosis: appointment.Diagnosis,
		Treatment: appointment.Treatment,
		CreatedAt: appointment.CreatedAt,
		UpdatedAt: appointment.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

func TransitionToResponse(appointment *entity.Appointment, changed bool) *dto.TransitionResponse {
	return &dto.TransitionResponse{
		Appointment: AppointmentToResponse(appointment),
		Changed:     changed,
	}
}
