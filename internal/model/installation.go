package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Source Types
type SourceType string

const (
	SourceTypeFromLead     SourceType = "from_lead"
	SourceTypeSelfReported SourceType = "self_reported"
)

// Approval Status
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsTerminal approved/rejected never transition again.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// Installation one registered installation with its own identity.
// Serials reference it by foreign key, so approval acts on the whole
// installation instead of grouping rows by installer+phone+date.
type Installation struct {
	gorm.Model
	InstallerID       uint           `json:"installer_id" gorm:"index;not null"`
	LeadID            *uint          `json:"lead_id" gorm:"index"`
	SourceType        SourceType     `json:"source_type" gorm:"not null"`
	ApprovalStatus    ApprovalStatus `json:"approval_status" gorm:"default:'pending';index"`
	ApprovedBy        *uint          `json:"approved_by"`
	ApprovedAt        *time.Time     `json:"approved_at"`
	RejectionReason   string         `json:"rejection_reason"`
	CustomerFirstName string         `json:"customer_first_name"`
	CustomerLastName  string         `json:"customer_last_name"`
	CustomerPhone     string         `json:"customer_phone"`
	CustomerEmail     string         `json:"customer_email"`
	CustomerAddress   string         `json:"customer_address"`
	InstallationDate  *time.Time     `json:"installation_date"`
	InstallationNotes string         `json:"installation_notes" gorm:"type:text"`
	PhotoURLs         datatypes.JSON `json:"photo_urls"`

	Installer Installer       `json:"installer,omitempty" gorm:"foreignKey:InstallerID"`
	Lead      *Lead           `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	Serials   []WallboxSerial `json:"serials,omitempty" gorm:"foreignKey:InstallationID"`
}

// TotalPoints sum of product points over the installation's serials.
// Pending and approved alike; callers filter by approval status.
func (i *Installation) TotalPoints() int {
	total := 0
	for _, s := range i.Serials {
		if s.Product != nil {
			total += s.Product.Points
		}
	}
	return total
}

// WallboxSerial one manufactured unit. The unique index on serial_code
// is the source of truth for duplicate detection; the application-level
// existence check is only a fast path.
type WallboxSerial struct {
	gorm.Model
	SerialCode       string     `json:"serial_code" gorm:"uniqueIndex;not null;size:11"`
	InstallationID   uint       `json:"installation_id" gorm:"index;not null"`
	LeadID           *uint      `json:"lead_id" gorm:"index"`
	ProductID        uint       `json:"product_id" gorm:"not null"`
	InstallerID      uint       `json:"installer_id" gorm:"index;not null"`
	Year             int        `json:"year"`
	ProductionNumber int        `json:"production_number"`
	SourceType       SourceType `json:"source_type" gorm:"not null"`

	Installation Installation `json:"-" gorm:"foreignKey:InstallationID"`
	Lead         *Lead        `json:"-" gorm:"foreignKey:LeadID"`
	Product      *Product     `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Installer    Installer    `json:"-" gorm:"foreignKey:InstallerID"`
}
