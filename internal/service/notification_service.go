package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"curanet/internal/domain"
	"curanet/internal/models"
	"curanet/internal/repository"
)

var ErrRecipientRequired = errors.New("recipient id required")

// Intent describes one notification to dispatch: persist it, then attempt
// best-effort realtime and push delivery to the recipient.
type Intent struct {
	Kind        string
	RecipientID uint
	SenderID    *uint
	Title       string
	Message     string
	Data        map[string]interface{}
	// Event overrides the kind-derived narrow websocket event (e.g. a
	// care-assignment intent is kind system but emits newAssignment).
	Event string
	// Priority overrides the kind-derived push priority.
	Priority string
}

// NotificationService is the single dispatch path shared by the REST layer,
// the webhook ingestor and the websocket session handlers.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	gateway  Gateway
	fcm      *FCMService
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, gateway Gateway, fcm *FCMService) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, gateway: gateway, fcm: fcm}
}

// Dispatch persists the notification and attempts realtime + push delivery.
// The store write is the only failure the caller sees; a recipient with no
// live connection or no device token is not an error.
func (s *NotificationService) Dispatch(intent Intent) (*models.Notification, error) {
	if intent.RecipientID == 0 {
		return nil, ErrRecipientRequired
	}
	var dataJSON string
	if intent.Data != nil {
		b, _ := json.Marshal(intent.Data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID:   intent.RecipientID,
		SenderID: intent.SenderID,
		Kind:     intent.Kind,
		Title:    intent.Title,
		Message:  intent.Message,
		Data:     dataJSON,
	}
	if err := s.repo.Create(n); err != nil {
		return nil, err
	}
	if s.gateway != nil {
		payload := s.eventPayload(n)
		s.gateway.EmitToUser(n.UserID, domain.EventNotification, payload)
		event := intent.Event
		if event == "" {
			event = domain.KindEvent(n.Kind)
		}
		if event != "" {
			s.gateway.EmitToUser(n.UserID, event, payload)
		}
		s.emitCount(n.UserID)
	}
	priority := intent.Priority
	if priority == "" {
		priority = domain.PushPriorityNormal
		if n.Kind == domain.KindCall {
			priority = domain.PushPriorityHigh
		}
	}
	s.sendPush(n, intent.Data, priority)
	return n, nil
}

// MarkRead flips one notification to read and re-emits the recipient's
// counts. Already-read or foreign notifications are a no-op success.
func (s *NotificationService) MarkRead(userID, id uint) error {
	if err := s.repo.MarkRead(id, userID); err != nil {
		return err
	}
	s.emitCount(userID)
	return nil
}

// MarkAllRead flips every unread notification for the user and re-emits
// counts.
func (s *NotificationService) MarkAllRead(userID uint) error {
	if err := s.repo.MarkAllRead(userID); err != nil {
		return err
	}
	s.emitCount(userID)
	return nil
}

// Counts returns the user's unread and total notification counts.
func (s *NotificationService) Counts(userID uint) (unread int64, total int64, err error) {
	return s.repo.Counts(userID)
}

// Resync re-delivers connection-join state to a user: a point-in-time count
// event plus one batched replay of notifications missed while offline,
// capped and limited to the trailing replay window, newest first.
func (s *NotificationService) Resync(userID uint) {
	s.emitCount(userID)
	if s.gateway == nil {
		return
	}
	since := time.Now().Add(-domain.MissedReplayWindowHours * time.Hour)
	missed, err := s.repo.ListUnreadSince(userID, since, domain.MissedReplayLimit)
	if err != nil {
		log.Printf("[Notify] missed lookup for user %d: %v", userID, err)
		return
	}
	if len(missed) == 0 {
		return
	}
	payloads := make([]map[string]interface{}, 0, len(missed))
	for i := range missed {
		payloads = append(payloads, s.eventPayload(&missed[i]))
	}
	s.gateway.EmitToUser(userID, domain.EventMissed, map[string]interface{}{
		"notifications": payloads,
		"count":         len(payloads),
	})
}

// emitCount recomputes and emits the recipient's unread/total counts. Always
// called after the triggering store write has committed.
func (s *NotificationService) emitCount(userID uint) {
	if s.gateway == nil {
		return
	}
	unread, total, err := s.repo.Counts(userID)
	if err != nil {
		log.Printf("[Notify] count for user %d: %v", userID, err)
		return
	}
	s.gateway.EmitToUser(userID, domain.EventCountUpdate, map[string]interface{}{
		"unreadCount": unread,
		"totalCount":  total,
	})
}

// eventPayload builds the websocket payload for a notification. The sender's
// public display fields are resolved for the emitted event only; the stored
// record keeps just the id.
func (s *NotificationService) eventPayload(n *models.Notification) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         n.ID,
		"user_id":    n.UserID,
		"kind":       n.Kind,
		"title":      n.Title,
		"message":    n.Message,
		"read":       n.Read,
		"created_at": n.CreatedAt,
	}
	if n.Data != "" {
		var data map[string]interface{}
		if json.Unmarshal([]byte(n.Data), &data) == nil {
			payload["data"] = data
		}
	}
	if n.SenderID != nil && s.userRepo != nil {
		if sender, err := s.userRepo.GetByID(*n.SenderID); err == nil {
			payload["sender"] = map[string]interface{}{
				"id":         sender.ID,
				"name":       sender.Name,
				"avatar_url": sender.AvatarURL,
			}
		}
	}
	return payload
}

// sendPush forwards the notification to the push provider. All failures are
// logged and swallowed; push is best-effort on top of the store write.
func (s *NotificationService) sendPush(n *models.Notification, data map[string]interface{}, priority string) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(n.UserID)
	if err != nil || u == nil || u.FCMToken == "" {
		return
	}
	dataStr := map[string]string{"kind": n.Kind}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			dataStr[k] = val
		case uint:
			dataStr[k] = fmt.Sprintf("%d", val)
		case int:
			dataStr[k] = fmt.Sprintf("%d", val)
		case float64:
			dataStr[k] = fmt.Sprintf("%.0f", val)
		default:
			b, _ := json.Marshal(v)
			dataStr[k] = string(b)
		}
	}
	s.fcm.Push(context.Background(), u.ID, u.FCMToken, n.Title, n.Message, dataStr, priority)
}
