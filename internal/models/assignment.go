package models

import (
	"time"

	"gorm.io/gorm"
)

// CareAssignment links a doctor to a patient under their care. Consumed by
// the presence fan-out ("your doctor is online") and assignment notifications.
type CareAssignment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	DoctorID  uint           `gorm:"not null;index;uniqueIndex:idx_assignments_pair" json:"doctor_id"`
	PatientID uint           `gorm:"not null;index;uniqueIndex:idx_assignments_pair" json:"patient_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
}

func (CareAssignment) TableName() string {
	return "care_assignments"
}
