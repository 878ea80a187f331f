package handler

import (
	"errors"
	"net/http"
	"strconv"

	"curanet/internal/domain"
	"curanet/internal/middleware"
	"curanet/internal/repository"
	"curanet/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo     *repository.NotificationRepository
	notifSvc *service.NotificationService
}

func NewNotificationHandler(repo *repository.NotificationRepository, notifSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{repo: repo, notifSvc: notifSvc}
}

// List returns the caller's notifications, newest first, with unread/total
// counts.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	list, err := h.repo.ListByUserID(userID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	unread, total, err := h.repo.Counts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"unreadCount":   unread,
		"totalCount":    total,
		"page":          page,
		"limit":         limit,
	})
}

// MarkRead is idempotent: re-marking a read notification succeeds.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.notifSvc.MarkRead(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.notifSvc.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createIntentRequest struct {
	RecipientID uint                   `json:"recipient_id" binding:"required"`
	Title       string                 `json:"title" binding:"required"`
	Message     string                 `json:"message" binding:"required"`
	Data        map[string]interface{} `json:"data"`
}

// CreateMessage, CreateSystem, CreateCall and CreateAssignment are direct
// creation intents. They go through the same Dispatch path as the
// webhook-triggered fan-out; only the store write can fail the request.

func (h *NotificationHandler) CreateMessage(c *gin.Context) {
	h.create(c, domain.KindMessage, "")
}

func (h *NotificationHandler) CreateSystem(c *gin.Context) {
	h.create(c, domain.KindSystem, "")
}

func (h *NotificationHandler) CreateCall(c *gin.Context) {
	h.create(c, domain.KindCall, "")
}

func (h *NotificationHandler) CreateAssignment(c *gin.Context) {
	h.create(c, domain.KindSystem, domain.EventNewAssignment)
}

func (h *NotificationHandler) create(c *gin.Context, kind, event string) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	intent := service.Intent{
		Kind:        kind,
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		Event:       event,
	}
	// system notifications have no originating user
	if kind != domain.KindSystem || event == domain.EventNewAssignment {
		senderID := middleware.GetUserID(c)
		intent.SenderID = &senderID
	}
	n, err := h.notifSvc.Dispatch(intent)
	if err != nil {
		if errors.Is(err, service.ErrRecipientRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": n})
}
