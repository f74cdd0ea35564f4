package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

type SetBlacklistRequest struct {
	Blacklisted *bool `json:"blacklisted" validate:"required"`
}

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email,omitempty"`
	FullName       string    `json:"full_name,omitempty"`
	Specialization string    `json:"specialization"`
	IsBlacklisted  bool      `json:"is_blacklisted"`
	IsActive       *bool     `json:"is_active,omitempty"`
}
