package repository

import (
	"time"

	"curanet/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByUserID(userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// Counts returns the recipient's unread and total notification counts.
func (r *NotificationRepository) Counts(userID uint) (unread int64, total int64, err error) {
	if err = r.db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread).Error; err != nil {
		return 0, 0, err
	}
	return unread, total, nil
}

// MarkRead flips one notification to read. Scoped to the owning user; a
// notification that is already read or not owned by the caller matches no
// rows, which is a success (idempotent), not an error.
func (r *NotificationRepository) MarkRead(id, userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true).Error
}

// MarkAllRead flips every unread notification for the user.
func (r *NotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// ListUnreadSince returns up to limit unread notifications created after
// since, newest first. Used for missed-notification replay on reconnect.
func (r *NotificationRepository) ListUnreadSince(userID uint, since time.Time, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ? AND is_read = ? AND created_at > ?", userID, false, since).
		Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}
