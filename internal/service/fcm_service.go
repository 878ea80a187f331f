package service

import (
	"context"
	"log"

	"curanet/internal/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// TokenStore clears a device token the provider reported as stale.
type TokenStore interface {
	ClearFCMToken(userID uint) error
}

// FCMService sends mobile push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
	tokens TokenStore
}

// NewFCMService creates an FCM service. Returns nil if Firebase is not configured.
func NewFCMService(serviceAccountPath string, tokens TokenStore) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		log.Printf("[FCM] Failed to init Firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("[FCM] Failed to get Messaging client: %v", err)
		return nil
	}
	return &FCMService{client: client, tokens: tokens}
}

// Push sends a push message for one recipient. Never returns an error: a
// push failure must not fail the dispatch or webhook call that triggered it.
// High priority bypasses device-side batching and is used for incoming
// calls; a token the provider reports as unregistered is cleared so future
// pushes short-circuit before reaching the provider.
func (s *FCMService) Push(ctx context.Context, userID uint, token, title, body string, data map[string]string, priority string) {
	if s == nil || token == "" {
		return
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	if priority == domain.PushPriorityHigh {
		msg.Android.Priority = "high"
		msg.APNS.Headers = map[string]string{"apns-priority": "10"}
		msg.Android.Notification.Sound = "ringtone"
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			log.Printf("[FCM] Stale token for user %d, clearing", userID)
			if s.tokens != nil {
				if cerr := s.tokens.ClearFCMToken(userID); cerr != nil {
					log.Printf("[FCM] Clear token for user %d: %v", userID, cerr)
				}
			}
			return
		}
		log.Printf("[FCM] Send to user %d: %v", userID, err)
	}
}
