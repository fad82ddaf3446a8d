package middleware

import (
	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

// CheckLeadAccess ensures the lead is assigned to the calling installer.
// Admins pass through.
func CheckLeadAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		if claims.Role == "admin" {
			return c.Next()
		}

		leadID := c.Params("id")

		var lead model.Lead
		if err := database.DB.First(&lead, leadID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lead not found",
			})
		}

		var count int64
		database.DB.Model(&model.LeadAssignment{}).
			Where("lead_id = ? AND installer_id = ?", lead.ID, claims.InstallerID).
			Count(&count)

		if count == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this lead",
			})
		}

		return c.Next()
	}
}

// CheckCompanyManagement ensures the caller is an installer with
// company-management rights (owner or admin with the capability flag).
func CheckCompanyManagement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		var installer model.Installer
		if err := database.DB.First(&installer, claims.InstallerID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Installer profile not found",
			})
		}

		if installer.CompanyID == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You are not affiliated with a company",
			})
		}

		if !installer.CanManageCompany {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to manage this company",
			})
		}

		c.Locals("installer", &installer)
		return c.Next()
	}
}

// RequireCompanyAffiliation lighter check for company dashboards that
// any team member may read.
func RequireCompanyAffiliation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		var installer model.Installer
		if err := database.DB.First(&installer, claims.InstallerID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Installer profile not found",
			})
		}

		if installer.CompanyID == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You are not affiliated with a company",
			})
		}

		c.Locals("installer", &installer)
		return c.Next()
	}
}
