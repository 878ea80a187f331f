package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_notifications_user_read" json:"user_id"` // recipient, immutable
	SenderID  *uint          `gorm:"index" json:"sender_id"`                                    // nil for system-generated
	Kind      string         `gorm:"size:20;not null;index" json:"kind"`
	Title     string         `gorm:"size:255" json:"title"`
	Message   string         `gorm:"size:512" json:"message"` // preview text, pre-truncated
	Data      string         `gorm:"type:text" json:"data"`   // kind-specific JSON payload
	Read      bool           `gorm:"column:is_read;default:false;index:idx_notifications_user_read" json:"read"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User   User  `gorm:"foreignKey:UserID" json:"-"`
	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
