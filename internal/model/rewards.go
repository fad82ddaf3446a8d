package model

import (
	"time"

	"gorm.io/gorm"
)

// RewardsTier one rung of the tier ladder. points_required is strictly
// increasing by tier_level (enforced by the seed data, relied on by
// ResolveTier).
type RewardsTier struct {
	gorm.Model
	TierName       string `json:"tier_name" gorm:"uniqueIndex;not null"`
	TierLevel      int    `json:"tier_level" gorm:"uniqueIndex;not null"`
	DisplayName    string `json:"display_name"`
	PointsRequired int    `json:"points_required" gorm:"not null"`
	BadgeColor     string `json:"badge_color"`
	Description    string `json:"description"`
}

// ResolveTier highest tier whose threshold is <= points. Returns nil
// when points is below the lowest threshold. Tiers may be passed in any
// order.
func ResolveTier(tiers []RewardsTier, points int) *RewardsTier {
	var best *RewardsTier
	for i := range tiers {
		t := &tiers[i]
		if t.PointsRequired > points {
			continue
		}
		if best == nil || t.PointsRequired > best.PointsRequired {
			best = t
		}
	}
	return best
}

// NextTier lowest tier strictly above the current points total, nil at
// the top of the ladder.
func NextTier(tiers []RewardsTier, points int) *RewardsTier {
	var next *RewardsTier
	for i := range tiers {
		t := &tiers[i]
		if t.PointsRequired <= points {
			continue
		}
		if next == nil || t.PointsRequired < next.PointsRequired {
			next = t
		}
	}
	return next
}

// TierProgress percentage toward the next tier, linearly interpolated
// between the current threshold and the next. 100 at the top tier, 0
// when no tier is reached and points is 0.
func TierProgress(tiers []RewardsTier, points int) float64 {
	next := NextTier(tiers, points)
	if next == nil {
		return 100
	}

	floor := 0
	if current := ResolveTier(tiers, points); current != nil {
		floor = current.PointsRequired
	}

	span := next.PointsRequired - floor
	if span <= 0 {
		return 0
	}
	progress := float64(points-floor) / float64(span) * 100
	if progress < 0 {
		return 0
	}
	return progress
}

// InstallerRewards cached running total, refreshed by the rewards cron.
// Dashboards recompute from approved serials; this row keeps
// leaderboard reads cheap.
type InstallerRewards struct {
	gorm.Model
	InstallerID   uint       `json:"installer_id" gorm:"uniqueIndex;not null"`
	TotalPoints   int        `json:"total_points" gorm:"default:0"`
	CurrentTierID *uint      `json:"current_tier_id"`
	TierReachedAt *time.Time `json:"tier_reached_at"`

	Installer Installer    `json:"-" gorm:"foreignKey:InstallerID"`
	Tier      *RewardsTier `json:"tier,omitempty" gorm:"foreignKey:CurrentTierID"`
}

type CompanyRewards struct {
	gorm.Model
	CompanyID     uint       `json:"company_id" gorm:"uniqueIndex;not null"`
	TotalPoints   int        `json:"total_points" gorm:"default:0"`
	CurrentTierID *uint      `json:"current_tier_id"`
	TierReachedAt *time.Time `json:"tier_reached_at"`

	Company InstallationCompany `json:"-" gorm:"foreignKey:CompanyID"`
	Tier    *RewardsTier        `json:"tier,omitempty" gorm:"foreignKey:CurrentTierID"`
}

// Transaction Types
type TransactionType string

const (
	TransactionLeadWon          TransactionType = "lead_won"
	TransactionInstallation     TransactionType = "installation_approved"
	TransactionManualAdjustment TransactionType = "manual_adjustment"
	TransactionTierBonus        TransactionType = "tier_bonus"
	TransactionCorrection       TransactionType = "correction"
)

// PointsTransaction append-only ledger line explaining a points delta.
type PointsTransaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	InstallerID  uint            `json:"installer_id" gorm:"index;not null"`
	CompanyID    *uint           `json:"company_id" gorm:"index"`
	LeadID       *uint           `json:"lead_id"`
	PointsEarned int             `json:"points_earned" gorm:"not null"`
	Type         TransactionType `json:"transaction_type" gorm:"column:transaction_type;not null"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`

	Installer Installer `json:"-" gorm:"foreignKey:InstallerID"`
}

// ApprovedPointsForInstaller recompute-on-read total: sum of product
// points over the installer's approved serials.
func ApprovedPointsForInstaller(db *gorm.DB, installerID uint) (int, error) {
	var total int64
	err := db.Model(&WallboxSerial{}).
		Joins("JOIN products ON products.id = wallbox_serials.product_id").
		Joins("JOIN installations ON installations.id = wallbox_serials.installation_id").
		Where("wallbox_serials.installer_id = ? AND installations.approval_status = ?",
			installerID, ApprovalStatusApproved).
		Select("COALESCE(SUM(products.points), 0)").
		Scan(&total).Error
	return int(total), err
}

// ApprovedPointsForCompany same recomputation across every installer of
// the company.
func ApprovedPointsForCompany(db *gorm.DB, companyID uint) (int, error) {
	var total int64
	err := db.Model(&WallboxSerial{}).
		Joins("JOIN products ON products.id = wallbox_serials.product_id").
		Joins("JOIN installations ON installations.id = wallbox_serials.installation_id").
		Joins("JOIN installers ON installers.id = wallbox_serials.installer_id").
		Where("installers.company_id = ? AND installations.approval_status = ?",
			companyID, ApprovalStatusApproved).
		Select("COALESCE(SUM(products.points), 0)").
		Scan(&total).Error
	return int(total), err
}
