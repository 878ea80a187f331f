package handler

import (
	"errors"
	"net/http"

	"curanet/internal/domain"
	"curanet/internal/middleware"
	"curanet/internal/models"
	"curanet/internal/repository"
	"curanet/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AssignmentHandler struct {
	repo     *repository.AssignmentRepository
	userRepo *repository.UserRepository
	notifSvc *service.NotificationService
}

func NewAssignmentHandler(repo *repository.AssignmentRepository, userRepo *repository.UserRepository, notifSvc *service.NotificationService) *AssignmentHandler {
	return &AssignmentHandler{repo: repo, userRepo: userRepo, notifSvc: notifSvc}
}

// Create assigns a patient to the calling doctor and notifies the patient.
func (h *AssignmentHandler) Create(c *gin.Context) {
	doctorID := middleware.GetUserID(c)
	var req struct {
		PatientID uint `json:"patient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patient, err := h.userRepo.GetByID(req.PatientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !patient.IsPatient() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not a patient"})
		return
	}
	a := &models.CareAssignment{DoctorID: doctorID, PatientID: patient.ID}
	if err := h.repo.Create(a); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "assignment exists"})
		return
	}
	doctor, _ := h.userRepo.GetByID(doctorID)
	doctorName := "Your doctor"
	if doctor != nil {
		doctorName = doctor.Name
	}
	did := doctorID
	_, _ = h.notifSvc.Dispatch(service.Intent{
		Kind:        domain.KindSystem,
		RecipientID: patient.ID,
		SenderID:    &did,
		Title:       "New care assignment",
		Message:     doctorName + " has been assigned to your care",
		Data:        map[string]interface{}{"doctor_id": doctorID, "assignment_id": a.ID},
		Event:       domain.EventNewAssignment,
	})
	c.JSON(http.StatusCreated, gin.H{"assignment": a})
}

// List returns the caller's assignments, scoped by role.
func (h *AssignmentHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var (
		list []models.CareAssignment
		err  error
	)
	if middleware.GetRole(c) == domain.RoleDoctor {
		list, err = h.repo.ListByDoctorID(userID)
	} else {
		list, err = h.repo.ListByPatientID(userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}
