package service

import (
	"log"

	"curanet/internal/domain"
	"curanet/internal/repository"
)

// PresenceService flips a user's online flag on connection lifecycle events
// and broadcasts the change to other live connections.
type PresenceService struct {
	repo    *repository.PresenceRepository
	gateway Gateway
}

func NewPresenceService(repo *repository.PresenceRepository, gateway Gateway) *PresenceService {
	return &PresenceService{repo: repo, gateway: gateway}
}

func (s *PresenceService) SetOnline(userID uint) {
	s.set(userID, true)
}

func (s *PresenceService) SetOffline(userID uint) {
	s.set(userID, false)
}

func (s *PresenceService) set(userID uint, online bool) {
	p, err := s.repo.SetOnline(userID, online)
	if err != nil {
		log.Printf("[Presence] set user %d online=%v: %v", userID, online, err)
		return
	}
	if s.gateway == nil {
		return
	}
	s.gateway.BroadcastExceptUser(userID, domain.EventOnlineStatus, map[string]interface{}{
		"user_id":      userID,
		"is_online":    p.IsOnline,
		"last_seen_at": p.LastSeenAt,
	})
}
