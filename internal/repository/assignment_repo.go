package repository

import (
	"curanet/internal/models"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(a *models.CareAssignment) error {
	return r.db.Create(a).Error
}

func (r *AssignmentRepository) ListByDoctorID(doctorID uint) ([]models.CareAssignment, error) {
	var list []models.CareAssignment
	err := r.db.Where("doctor_id = ?", doctorID).Find(&list).Error
	return list, err
}

func (r *AssignmentRepository) ListByPatientID(patientID uint) ([]models.CareAssignment, error) {
	var list []models.CareAssignment
	err := r.db.Where("patient_id = ?", patientID).Find(&list).Error
	return list, err
}

// ListPatientIDsByDoctorID returns the ids of all patients under the doctor's
// care. Used by the presence fan-out when a doctor comes online.
func (r *AssignmentRepository) ListPatientIDsByDoctorID(doctorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CareAssignment{}).Where("doctor_id = ?", doctorID).Pluck("patient_id", &ids).Error
	return ids, err
}
