package controller

import (
	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

type LeaderboardEntry struct {
	InstallerID uint   `json:"installer_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Region      string `json:"region"`
	CompanyName string `json:"company_name"`
	TotalPoints int    `json:"total_points"`
	Rank        int    `json:"rank"`

	TierName string `json:"tier_name,omitempty"`
}

// GetTiers the ordered tier ladder.
func GetTiers(c *fiber.Ctx) error {
	var tiers []model.RewardsTier
	if err := database.GetDB().Order("tier_level asc").Find(&tiers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch tiers",
		})
	}
	return c.JSON(tiers)
}

// GetMyRewards recomputes the caller's total from approved serials,
// resolves the tier and progress toward the next one, and returns the
// recent ledger lines.
func GetMyRewards(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	db := database.GetDB()

	points, err := model.ApprovedPointsForInstaller(db, claims.InstallerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute points",
		})
	}

	var tiers []model.RewardsTier
	if err := db.Order("tier_level asc").Find(&tiers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch tiers",
		})
	}

	var pendingPoints int64
	db.Model(&model.WallboxSerial{}).
		Joins("JOIN products ON products.id = wallbox_serials.product_id").
		Joins("JOIN installations ON installations.id = wallbox_serials.installation_id").
		Where("wallbox_serials.installer_id = ? AND installations.approval_status = ?",
			claims.InstallerID, model.ApprovalStatusPending).
		Select("COALESCE(SUM(products.points), 0)").
		Scan(&pendingPoints)

	var transactions []model.PointsTransaction
	db.Where("installer_id = ?", claims.InstallerID).
		Order("created_at desc").
		Limit(20).
		Find(&transactions)

	return c.JSON(fiber.Map{
		"total_points":   points,
		"pending_points": pendingPoints,
		"current_tier":   model.ResolveTier(tiers, points),
		"next_tier":      model.NextTier(tiers, points),
		"tier_progress":  model.TierProgress(tiers, points),
		"tiers":          tiers,
		"transactions":   transactions,
	})
}

// GetLeaderboard installers ranked by approved points. Live
// aggregation; the cached installer_rewards rows exist for the nightly
// snapshot, the leaderboard itself recomputes from raw rows.
func GetLeaderboard(c *fiber.Ctx) error {
	db := database.GetDB()

	var entries []LeaderboardEntry
	err := db.Raw(`
        SELECT
            i.id AS installer_id,
            i.first_name,
            i.last_name,
            i.region,
            COALESCE(ic.company_name, '') AS company_name,
            COALESCE(SUM(p.points), 0) AS total_points
        FROM installers i
        LEFT JOIN installation_companies ic ON ic.id = i.company_id
        LEFT JOIN wallbox_serials ws ON ws.installer_id = i.id
        LEFT JOIN installations inst ON inst.id = ws.installation_id
            AND inst.approval_status = 'approved'
        LEFT JOIN products p ON p.id = ws.product_id
            AND inst.approval_status = 'approved'
        WHERE i.is_active = true AND i.deleted_at IS NULL
        GROUP BY i.id, i.first_name, i.last_name, i.region, ic.company_name
        ORDER BY total_points DESC, i.last_name ASC
        LIMIT 50
    `).Scan(&entries).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not build leaderboard",
		})
	}

	var tiers []model.RewardsTier
	db.Order("tier_level asc").Find(&tiers)

	for i := range entries {
		entries[i].Rank = i + 1
		if tier := model.ResolveTier(tiers, entries[i].TotalPoints); tier != nil {
			entries[i].TierName = tier.TierName
		}
	}

	return c.JSON(entries)
}

// GetCompanyRewards company totals plus per-installer contributions.
// Any team member may read it.
func GetCompanyRewards(c *fiber.Ctx) error {
	installer := c.Locals("installer").(*model.Installer)
	db := database.GetDB()

	points, err := model.ApprovedPointsForCompany(db, *installer.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute points",
		})
	}

	var tiers []model.RewardsTier
	if err := db.Order("tier_level asc").Find(&tiers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch tiers",
		})
	}

	type contribution struct {
		InstallerID            uint   `json:"installer_id"`
		FirstName              string `json:"first_name"`
		LastName               string `json:"last_name"`
		TotalPointsContributed int    `json:"total_points_contributed"`
		InstallationsCount     int    `json:"installations_count"`
	}

	var contributions []contribution
	db.Raw(`
        SELECT
            i.id AS installer_id,
            i.first_name,
            i.last_name,
            COALESCE(SUM(p.points), 0) AS total_points_contributed,
            COUNT(DISTINCT inst.id) AS installations_count
        FROM installers i
        LEFT JOIN wallbox_serials ws ON ws.installer_id = i.id
        LEFT JOIN installations inst ON inst.id = ws.installation_id
            AND inst.approval_status = 'approved'
        LEFT JOIN products p ON p.id = ws.product_id
            AND inst.approval_status = 'approved'
        WHERE i.company_id = ? AND i.deleted_at IS NULL
        GROUP BY i.id, i.first_name, i.last_name
        ORDER BY total_points_contributed DESC
    `, installer.CompanyID).Scan(&contributions)

	return c.JSON(fiber.Map{
		"total_points":  points,
		"current_tier":  model.ResolveTier(tiers, points),
		"next_tier":     model.NextTier(tiers, points),
		"tier_progress": model.TierProgress(tiers, points),
		"tiers":         tiers,
		"contributions": contributions,
	})
}
