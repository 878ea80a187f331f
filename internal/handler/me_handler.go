package handler

import (
	"net/http"

	"curanet/internal/middleware"
	"curanet/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo     *repository.UserRepository
	presenceRepo *repository.PresenceRepository
}

func NewMeHandler(userRepo *repository.UserRepository, presenceRepo *repository.PresenceRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo, presenceRepo: presenceRepo}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// RegisterFCMToken saves the device token for mobile push. Each registration
// overwrites the previous token.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.userRepo.SetFCMToken(userID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MeHandler) GetMyPresence(c *gin.Context) {
	userID := middleware.GetUserID(c)
	p, err := h.presenceRepo.GetByUserID(userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"is_online": false})
		return
	}
	c.JSON(http.StatusOK, p)
}
