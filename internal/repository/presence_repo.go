package repository

import (
	"time"

	"curanet/internal/models"

	"gorm.io/gorm"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

func (r *PresenceRepository) GetByUserID(userID uint) (*models.UserPresence, error) {
	var p models.UserPresence
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetOnline flips the user's online flag, creating the presence row on first
// connect.
func (r *PresenceRepository) SetOnline(userID uint, online bool) (*models.UserPresence, error) {
	p, err := r.GetByUserID(userID)
	if err != nil {
		p = &models.UserPresence{UserID: userID}
	}
	p.IsOnline = online
	p.LastSeenAt = time.Now()
	if err := r.db.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}
