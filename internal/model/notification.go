package model

import (
	"time"

	"gorm.io/gorm"
)

// Notification delivery status
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationLog outcome of one transactional email dispatch.
type NotificationLog struct {
	gorm.Model
	AssignmentID    *uint              `json:"assignment_id"`
	InstallerID     uint               `json:"installer_id" gorm:"index;not null"`
	LeadID          uint               `json:"lead_id" gorm:"index;not null"`
	EmailSentTo     string             `json:"email_sent_to" gorm:"not null"`
	Status          NotificationStatus `json:"status" gorm:"default:'pending'"`
	ResendMessageID string             `json:"resend_message_id"`
	ErrorMessage    string             `json:"error_message"`
	SentAt          *time.Time         `json:"sent_at"`
}

// PushSubscription one browser push endpoint for an installer.
// Deactivated after 5 consecutive delivery failures.
type PushSubscription struct {
	gorm.Model
	InstallerID uint       `json:"installer_id" gorm:"index;not null"`
	Endpoint    string     `json:"endpoint" gorm:"uniqueIndex;not null"`
	P256dhKey   string     `json:"p256dh_key" gorm:"not null"`
	AuthKey     string     `json:"auth_key" gorm:"not null"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	ErrorCount  int        `json:"error_count" gorm:"default:0"`
	LastUsedAt  *time.Time `json:"last_used_at"`

	Installer Installer `json:"-" gorm:"foreignKey:InstallerID"`
}
