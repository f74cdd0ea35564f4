package notification

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypePenaltyNotification = "notification:penalty"

const (
	PenaltySubject = "Appointment No-Show Recorded"
	PenaltyBody    = "You missed a scheduled appointment. If this was an error, please contact the clinic."
)

// Job is one notification to deliver. A job is tied to exactly one penalty.
type Job struct {
	PenaltyID     uuid.UUID `json:"penalty_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Address       string    `json:"address"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
}

// NewPenaltyJob builds the no-show notice for a penalty.
func NewPenaltyJob(penaltyID, appointmentID, patientID uuid.UUID, address string) Job {
	return Job{
		PenaltyID:     penaltyID,
		AppointmentID: appointmentID,
		PatientID:     patientID,
		Address:       address,
		Subject:       PenaltySubject,
		Body:          PenaltyBody,
	}
}

// TaskID is the queue-level dedupe key: one live task per penalty.
func (j Job) TaskID() string {
	return "penalty:" + j.PenaltyID.String()
}

func NewTask(job Job) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal notification job: %w", err)
	}
	return asynq.NewTask(TypePenaltyNotification, payload), nil
}

func ParseTask(task *asynq.Task) (Job, error) {
	var job Job
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal notification job: %w", err)
	}
	return job, nil
}
