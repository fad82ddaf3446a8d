package controller

import (
	"fmt"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RejectInstallationInput struct {
	Reason string `json:"reason" validate:"required"`
}

// GetPendingInstallations admin approval queue. Defaults to pending,
// any approval status can be requested.
func GetPendingInstallations(c *fiber.Ctx) error {
	status := c.Query("status", string(model.ApprovalStatusPending))

	var installations []model.Installation
	if err := database.GetDB().
		Where("approval_status = ?", status).
		Preload("Installer.Company").
		Preload("Serials.Product").
		Order("created_at asc").
		Find(&installations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch installations",
		})
	}

	return c.JSON(installations)
}

// ApproveInstallation pending -> approved, terminal. Stamps every
// serial row, writes the points ledger line and flips the installation
// in one transaction. Approval is the sole trigger for points to count
// toward rewards totals.
func ApproveInstallation(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	installationID := c.Params("id")

	var installation model.Installation
	if err := database.GetDB().
		Preload("Serials.Product").
		Preload("Installer").
		First(&installation, installationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Installation not found",
		})
	}

	if installation.ApprovalStatus.IsTerminal() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "Installation has already been reviewed",
			"status": installation.ApprovalStatus,
		})
	}

	now := time.Now()
	points := installation.TotalPoints()

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&installation).Updates(map[string]interface{}{
			"approval_status": model.ApprovalStatusApproved,
			"approved_by":     claims.UserID,
			"approved_at":     &now,
		}).Error; err != nil {
			return err
		}

		transaction := model.PointsTransaction{
			InstallerID:  installation.InstallerID,
			CompanyID:    installation.Installer.CompanyID,
			LeadID:       installation.LeadID,
			PointsEarned: points,
			Type:         model.TransactionInstallation,
			Description:  fmt.Sprintf("Installation #%d approved (%d serials)", installation.ID, len(installation.Serials)),
		}
		return tx.Create(&transaction).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not approve installation",
		})
	}

	return c.JSON(fiber.Map{
		"message":        "Installation approved",
		"points_awarded": points,
	})
}

// RejectInstallation pending -> rejected, terminal. A non-empty reason
// is required.
func RejectInstallation(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	installationID := c.Params("id")

	input := new(RejectInstallationInput)
	if err := c.BodyParser(input); err != nil || input.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A rejection reason is required",
		})
	}

	var installation model.Installation
	if err := database.GetDB().First(&installation, installationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Installation not found",
		})
	}

	if installation.ApprovalStatus.IsTerminal() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "Installation has already been reviewed",
			"status": installation.ApprovalStatus,
		})
	}

	now := time.Now()
	if err := database.GetDB().Model(&installation).Updates(map[string]interface{}{
		"approval_status":  model.ApprovalStatusRejected,
		"approved_by":      claims.UserID,
		"approved_at":      &now,
		"rejection_reason": input.Reason,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not reject installation",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Installation rejected",
	})
}
