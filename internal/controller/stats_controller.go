package controller

import (
	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

type AdminStats struct {
	TotalLeads           int64            `json:"total_leads"`
	LeadsByStatus        map[string]int64 `json:"leads_by_status"`
	TotalCompanies       int64            `json:"total_companies"`
	TotalInstallers      int64            `json:"total_installers"`
	ActiveInstallers     int64            `json:"active_installers"`
	PendingInstallations int64            `json:"pending_installations"`
	TotalInstallations   int64            `json:"total_installations"`
	PointsIssued         int64            `json:"points_issued"`
}

type InstallerStats struct {
	TotalLeads    int64            `json:"total_leads"`
	LeadsByStatus map[string]int64 `json:"leads_by_status"`
	Installations int64            `json:"installations"`
	PendingCount  int64            `json:"pending_installations"`
	TotalPoints   int              `json:"total_points"`
	TierName      string           `json:"tier_name,omitempty"`
}

// GetAdminStats platform-wide dashboard numbers.
func GetAdminStats(c *fiber.Ctx) error {
	db := database.GetDB()
	stats := AdminStats{LeadsByStatus: map[string]int64{}}

	db.Model(&model.Lead{}).Count(&stats.TotalLeads)

	for _, status := range model.ValidLeadStatuses {
		var count int64
		db.Model(&model.Lead{}).Where("status = ?", status).Count(&count)
		stats.LeadsByStatus[string(status)] = count
	}

	db.Model(&model.InstallationCompany{}).Count(&stats.TotalCompanies)
	db.Model(&model.Installer{}).Count(&stats.TotalInstallers)
	db.Model(&model.Installer{}).Where("is_active = ?", true).Count(&stats.ActiveInstallers)
	db.Model(&model.Installation{}).Where("approval_status = ?", model.ApprovalStatusPending).
		Count(&stats.PendingInstallations)
	db.Model(&model.Installation{}).Count(&stats.TotalInstallations)

	db.Model(&model.PointsTransaction{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&stats.PointsIssued)

	return c.JSON(stats)
}

// GetCompanyStats dashboard for company members.
func GetCompanyStats(c *fiber.Ctx) error {
	installer := c.Locals("installer").(*model.Installer)
	db := database.GetDB()

	var totalInstallers, activeInstallers int64
	db.Model(&model.Installer{}).Where("company_id = ?", installer.CompanyID).Count(&totalInstallers)
	db.Model(&model.Installer{}).Where("company_id = ? AND is_active = ?", installer.CompanyID, true).
		Count(&activeInstallers)

	var totalLeads, wonLeads int64
	db.Model(&model.LeadAssignment{}).
		Joins("JOIN installers ON installers.id = lead_assignments.installer_id").
		Where("installers.company_id = ?", installer.CompanyID).
		Count(&totalLeads)
	db.Model(&model.LeadAssignment{}).
		Joins("JOIN installers ON installers.id = lead_assignments.installer_id").
		Joins("JOIN leads ON leads.id = lead_assignments.lead_id").
		Where("installers.company_id = ? AND leads.status = ?", installer.CompanyID, model.LeadStatusWonClosed).
		Count(&wonLeads)

	var totalInstallations int64
	db.Model(&model.Installation{}).
		Joins("JOIN installers ON installers.id = installations.installer_id").
		Where("installers.company_id = ?", installer.CompanyID).
		Count(&totalInstallations)

	points, err := model.ApprovedPointsForCompany(db, *installer.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute points",
		})
	}

	var tiers []model.RewardsTier
	db.Order("tier_level asc").Find(&tiers)

	conversionRate := 0.0
	if totalLeads > 0 {
		conversionRate = float64(wonLeads) / float64(totalLeads) * 100
	}

	return c.JSON(fiber.Map{
		"total_installers":    totalInstallers,
		"active_installers":   activeInstallers,
		"total_leads":         totalLeads,
		"won_leads":           wonLeads,
		"conversion_rate":     conversionRate,
		"total_installations": totalInstallations,
		"total_points":        points,
		"current_tier":        model.ResolveTier(tiers, points),
	})
}

// GetInstallerStats dashboard for the calling installer.
func GetInstallerStats(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	db := database.GetDB()

	stats := InstallerStats{LeadsByStatus: map[string]int64{}}

	db.Model(&model.LeadAssignment{}).
		Where("installer_id = ?", claims.InstallerID).
		Count(&stats.TotalLeads)

	for _, status := range model.ValidLeadStatuses {
		var count int64
		db.Model(&model.LeadAssignment{}).
			Joins("JOIN leads ON leads.id = lead_assignments.lead_id").
			Where("lead_assignments.installer_id = ? AND leads.status = ?", claims.InstallerID, status).
			Count(&count)
		stats.LeadsByStatus[string(status)] = count
	}

	db.Model(&model.Installation{}).
		Where("installer_id = ?", claims.InstallerID).
		Count(&stats.Installations)
	db.Model(&model.Installation{}).
		Where("installer_id = ? AND approval_status = ?", claims.InstallerID, model.ApprovalStatusPending).
		Count(&stats.PendingCount)

	points, err := model.ApprovedPointsForInstaller(db, claims.InstallerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute points",
		})
	}
	stats.TotalPoints = points

	var tiers []model.RewardsTier
	db.Order("tier_level asc").Find(&tiers)
	if tier := model.ResolveTier(tiers, points); tier != nil {
		stats.TierName = tier.TierName
	}

	return c.JSON(stats)
}
