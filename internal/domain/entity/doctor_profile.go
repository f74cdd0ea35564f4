package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialization string    `gorm:"type:varchar(100);index" json:"specialization"`
	IsBlacklisted  bool      `gorm:"not null;default:false;index" json:"is_blacklisted"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// IsBookable reports whether new appointments may be made with the doctor.
// Existing appointments are unaffected by the blacklist flag.
func (d *DoctorProfile) IsBookable() bool {
	if d.IsBlacklisted {
		return false
	}
	return d.User.IsActive == nil || *d.User.IsActive
}
