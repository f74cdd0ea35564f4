package converter

import (
	"github.com/vramonlinebsc/hms/internal/delivery/dto"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:             profile.UserID,
		Email:          profile.User.Email,
		FullName:       profile.User.FullName,
		Specialization: profile.Specialization,
		IsBlacklisted:  profile.IsBlacklisted,
		IsActive:       profile.User.IsActive,
	}
}
