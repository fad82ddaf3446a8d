package model

import (
	"time"

	"gorm.io/gorm"
)

// Lead Status
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusWonClosed  LeadStatus = "won_closed"
	LeadStatusLostClosed LeadStatus = "lost_closed"
)

// ValidLeadStatuses transitions are permissive between the four values;
// the won-closed guard (at least one serial) lives in the controller.
var ValidLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusInProgress,
	LeadStatusWonClosed,
	LeadStatusLostClosed,
}

func (s LeadStatus) IsValid() bool {
	for _, v := range ValidLeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s LeadStatus) IsClosed() bool {
	return s == LeadStatusWonClosed || s == LeadStatusLostClosed
}

type Lead struct {
	gorm.Model
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone" gorm:"not null"`
	Address     string     `json:"address"`
	Description string     `json:"description" gorm:"type:text"`
	Status      LeadStatus `json:"status" gorm:"default:'new';index"`
	ZohoLeadID  string     `json:"zoho_lead_id" gorm:"index"`
	QuotePdfURL string     `json:"quote_pdf_url"`

	Assignments []LeadAssignment    `json:"assignments,omitempty" gorm:"foreignKey:LeadID"`
	History     []LeadStatusHistory `json:"history,omitempty" gorm:"foreignKey:LeadID"`
	Notes       []LeadNote          `json:"notes,omitempty" gorm:"foreignKey:LeadID"`
	Serials     []WallboxSerial     `json:"serials,omitempty" gorm:"foreignKey:LeadID"`
}

func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// SerialCount how many wallbox serials are registered against the lead.
// Used by the won-closed guard.
func (l *Lead) SerialCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&WallboxSerial{}).Where("lead_id = ?", l.ID).Count(&count).Error
	return count, err
}

type LeadAssignment struct {
	gorm.Model
	LeadID               uint       `json:"lead_id" gorm:"index;not null"`
	InstallerID          uint       `json:"installer_id" gorm:"index;not null"`
	AssignedAt           time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	IsViewed             bool       `json:"is_viewed" gorm:"default:false"`
	ViewedAt             *time.Time `json:"viewed_at"`
	ConfirmedByInstaller bool       `json:"confirmed_by_installer" gorm:"default:false"`
	ConfirmedAt          *time.Time `json:"confirmed_at"`

	Lead      Lead      `json:"-" gorm:"foreignKey:LeadID"`
	Installer Installer `json:"installer,omitempty" gorm:"foreignKey:InstallerID"`
}

// LeadStatusHistory append-only audit trail. Rows are only ever inserted,
// in the same transaction as the status write on the lead.
type LeadStatusHistory struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	LeadID      uint       `json:"lead_id" gorm:"index;not null"`
	InstallerID *uint      `json:"installer_id"`
	OldStatus   *string    `json:"old_status"`
	NewStatus   string     `json:"new_status" gorm:"not null"`
	Notes       string     `json:"notes"`
	ChangedAt   time.Time  `json:"changed_at" gorm:"autoCreateTime"`
	Lead        Lead       `json:"-" gorm:"foreignKey:LeadID"`
	Installer   *Installer `json:"-" gorm:"foreignKey:InstallerID"`
}

func (LeadStatusHistory) TableName() string {
	return "lead_status_history"
}

// LeadNote append-only freeform annotation by an installer.
type LeadNote struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LeadID      uint      `json:"lead_id" gorm:"index;not null"`
	InstallerID uint      `json:"installer_id" gorm:"not null"`
	NoteText    string    `json:"note_text" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`

	Lead      Lead      `json:"-" gorm:"foreignKey:LeadID"`
	Installer Installer `json:"installer,omitempty" gorm:"foreignKey:InstallerID"`
}
