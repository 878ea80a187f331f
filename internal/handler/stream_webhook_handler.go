package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"curanet/config"
	"curanet/internal/domain"
	"curanet/internal/models"
	"curanet/internal/repository"
	"curanet/internal/service"

	"github.com/gin-gonic/gin"
)

// dispatcher is the shared notification service surface the ingestor fans
// out through.
type dispatcher interface {
	Dispatch(intent service.Intent) (*models.Notification, error)
}

// StreamWebhookHandler ingests chat-platform webhook events and fans each
// one out to the affected channel members.
type StreamWebhookHandler struct {
	cfg            *config.StreamConfig
	dispatcher     dispatcher
	userRepo       *repository.UserRepository
	assignmentRepo *repository.AssignmentRepository
}

func NewStreamWebhookHandler(cfg *config.StreamConfig, d dispatcher, userRepo *repository.UserRepository, assignmentRepo *repository.AssignmentRepository) *StreamWebhookHandler {
	return &StreamWebhookHandler{cfg: cfg, dispatcher: d, userRepo: userRepo, assignmentRepo: assignmentRepo}
}

type streamUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
	Role   string `json:"role"`
}

type streamMember struct {
	UserID string      `json:"user_id"`
	User   *streamUser `json:"user"`
}

type streamChannel struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Members   []streamMember `json:"members"`
	CreatedBy *streamUser    `json:"created_by"`
}

type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
	User    *streamUser    `json:"user"`
	Channel *streamChannel `json:"channel"`
	Call    *struct {
		ID        string      `json:"id"`
		CreatedBy *streamUser `json:"created_by"`
	} `json:"call"`
}

// Handle verifies the webhook signature, then dispatches by event type.
// Once past signature verification and parsing the response is always
// 200 {success:true} regardless of downstream dispatch outcomes; upstream
// platforms disable webhooks that keep erroring.
func (h *StreamWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.verifySignature(body, c.GetHeader("x-signature"), c.GetHeader("x-signature-timestamp")) {
		log.Printf("[Webhook] signature rejected from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var ev streamEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	switch ev.Type {
	case "message.new":
		h.handleNewMessage(&ev)
	case "user.presence.changed":
		h.handlePresenceChanged(&ev)
	case "channel.created":
		h.handleChannelCreated(&ev)
	case "call.created":
		h.handleCallCreated(&ev)
	default:
		// acknowledged, no action
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// verifySignature checks HMAC-SHA256(secret, timestamp + rawBody) against
// the x-signature header. Verification is skipped only when the explicit
// allow-unsigned debug flag is set; a missing secret otherwise rejects.
func (h *StreamWebhookHandler) verifySignature(body []byte, signature, timestamp string) bool {
	if h.cfg.WebhookSecret == "" {
		return h.cfg.AllowUnsigned
	}
	mac := hmac.New(sha256.New, []byte(h.cfg.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// handleNewMessage fans a chat message out to every channel member except
// the sender. Member dispatches are independent: one failed recipient never
// blocks the rest.
func (h *StreamWebhookHandler) handleNewMessage(ev *streamEvent) {
	if ev.Message == nil || ev.User == nil || ev.Channel == nil {
		return
	}
	senderID := parseUserID(ev.User.ID)
	if senderID == 0 {
		return
	}
	senderName := ev.User.Name
	if senderName == "" {
		if sender, err := h.userRepo.GetByID(senderID); err == nil {
			senderName = sender.Name
		}
	}
	preview := senderName + ": " + truncate(ev.Message.Text, domain.MessagePreviewLen)
	for _, member := range ev.Channel.Members {
		recipientID := memberUserID(member)
		if recipientID == 0 || recipientID == senderID {
			continue
		}
		sid := senderID
		_, err := h.dispatcher.Dispatch(service.Intent{
			Kind:        domain.KindMessage,
			RecipientID: recipientID,
			SenderID:    &sid,
			Title:       "New message",
			Message:     preview,
			Data: map[string]interface{}{
				"channel_id": ev.Channel.ID,
				"sender_id":  senderID,
			},
		})
		if err != nil {
			log.Printf("[Webhook] message.new dispatch to user %d: %v", recipientID, err)
		}
	}
}

// handlePresenceChanged notifies a doctor's patients when the doctor comes
// online.
func (h *StreamWebhookHandler) handlePresenceChanged(ev *streamEvent) {
	if ev.User == nil || !ev.User.Online {
		return
	}
	doctorID := parseUserID(ev.User.ID)
	if doctorID == 0 {
		return
	}
	doctor, err := h.userRepo.GetByID(doctorID)
	if err != nil || !doctor.IsDoctor() {
		return
	}
	patientIDs, err := h.assignmentRepo.ListPatientIDsByDoctorID(doctorID)
	if err != nil {
		log.Printf("[Webhook] presence.changed patients of doctor %d: %v", doctorID, err)
		return
	}
	for _, pid := range patientIDs {
		did := doctorID
		_, err := h.dispatcher.Dispatch(service.Intent{
			Kind:        domain.KindSystem,
			RecipientID: pid,
			SenderID:    &did,
			Title:       "Doctor online",
			Message:     doctor.Name + " is now online",
			Data:        map[string]interface{}{"doctor_id": doctorID},
		})
		if err != nil {
			log.Printf("[Webhook] presence.changed dispatch to user %d: %v", pid, err)
		}
	}
}

// handleChannelCreated notifies every member except the creator.
func (h *StreamWebhookHandler) handleChannelCreated(ev *streamEvent) {
	if ev.Channel == nil {
		return
	}
	var creatorID uint
	if ev.Channel.CreatedBy != nil {
		creatorID = parseUserID(ev.Channel.CreatedBy.ID)
	} else if ev.User != nil {
		creatorID = parseUserID(ev.User.ID)
	}
	for _, member := range ev.Channel.Members {
		recipientID := memberUserID(member)
		if recipientID == 0 || recipientID == creatorID {
			continue
		}
		intent := service.Intent{
			Kind:        domain.KindSystem,
			RecipientID: recipientID,
			Title:       "New conversation",
			Message:     "A new conversation was started with you",
			Data:        map[string]interface{}{"channel_id": ev.Channel.ID},
		}
		if creatorID != 0 {
			cid := creatorID
			intent.SenderID = &cid
		}
		if _, err := h.dispatcher.Dispatch(intent); err != nil {
			log.Printf("[Webhook] channel.created dispatch to user %d: %v", recipientID, err)
		}
	}
}

// handleCallCreated notifies every member except the caller. Call dispatches
// carry high push priority so the device rings immediately.
func (h *StreamWebhookHandler) handleCallCreated(ev *streamEvent) {
	if ev.Channel == nil {
		return
	}
	var callerID uint
	var callerName string
	if ev.Call != nil && ev.Call.CreatedBy != nil {
		callerID = parseUserID(ev.Call.CreatedBy.ID)
		callerName = ev.Call.CreatedBy.Name
	} else if ev.User != nil {
		callerID = parseUserID(ev.User.ID)
		callerName = ev.User.Name
	}
	if callerID == 0 {
		return
	}
	if callerName == "" {
		if caller, err := h.userRepo.GetByID(callerID); err == nil {
			callerName = caller.Name
		}
	}
	var callID string
	if ev.Call != nil {
		callID = ev.Call.ID
	}
	for _, member := range ev.Channel.Members {
		recipientID := memberUserID(member)
		if recipientID == 0 || recipientID == callerID {
			continue
		}
		cid := callerID
		_, err := h.dispatcher.Dispatch(service.Intent{
			Kind:        domain.KindCall,
			RecipientID: recipientID,
			SenderID:    &cid,
			Title:       "Incoming call",
			Message:     callerName + " is calling you",
			Data: map[string]interface{}{
				"call_id":     callID,
				"channel_id":  ev.Channel.ID,
				"caller_id":   callerID,
				"caller_name": callerName,
			},
			Priority: domain.PushPriorityHigh,
		})
		if err != nil {
			log.Printf("[Webhook] call.created dispatch to user %d: %v", recipientID, err)
		}
	}
}

func memberUserID(m streamMember) uint {
	if m.UserID != "" {
		return parseUserID(m.UserID)
	}
	if m.User != nil {
		return parseUserID(m.User.ID)
	}
	return 0
}

func parseUserID(s string) uint {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
