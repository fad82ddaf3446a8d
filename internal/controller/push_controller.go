package controller

import (
	"os"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

type PushSubscriptionInput struct {
	Endpoint  string `json:"endpoint" validate:"required"`
	P256dhKey string `json:"p256dh_key" validate:"required"`
	AuthKey   string `json:"auth_key" validate:"required"`
}

// GetVAPIDPublicKey the key browsers need to subscribe.
func GetVAPIDPublicKey(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"public_key": os.Getenv("VAPID_PUBLIC_KEY"),
	})
}

// SubscribePush registers (or reactivates) a browser push endpoint for
// the calling installer.
func SubscribePush(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(PushSubscriptionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Endpoint == "" || input.P256dhKey == "" || input.AuthKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "endpoint, p256dh_key and auth_key are required",
		})
	}

	// Re-subscribing an existing endpoint reactivates it.
	var existing model.PushSubscription
	if err := database.GetDB().Where("endpoint = ?", input.Endpoint).First(&existing).Error; err == nil {
		if err := database.GetDB().Model(&existing).Updates(map[string]interface{}{
			"installer_id": claims.InstallerID,
			"p256dh_key":   input.P256dhKey,
			"auth_key":     input.AuthKey,
			"is_active":    true,
			"error_count":  0,
		}).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not update subscription",
			})
		}
		return c.JSON(existing)
	}

	subscription := model.PushSubscription{
		InstallerID: claims.InstallerID,
		Endpoint:    input.Endpoint,
		P256dhKey:   input.P256dhKey,
		AuthKey:     input.AuthKey,
		IsActive:    true,
	}

	if err := database.GetDB().Create(&subscription).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create subscription",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(subscription)
}

// UnsubscribePush deactivates the caller's subscription for an endpoint.
func UnsubscribePush(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := struct {
		Endpoint string `json:"endpoint"`
	}{}
	if err := c.BodyParser(&input); err != nil || input.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "endpoint is required",
		})
	}

	result := database.GetDB().Model(&model.PushSubscription{}).
		Where("installer_id = ? AND endpoint = ?", claims.InstallerID, input.Endpoint).
		Update("is_active", false)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not unsubscribe",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// GetMyPushSubscriptions lists the caller's registered endpoints.
func GetMyPushSubscriptions(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var subscriptions []model.PushSubscription
	if err := database.GetDB().
		Where("installer_id = ?", claims.InstallerID).
		Find(&subscriptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscriptions",
		})
	}

	return c.JSON(subscriptions)
}
