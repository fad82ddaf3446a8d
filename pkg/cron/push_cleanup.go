package cron

import (
	"log"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"

	"github.com/robfig/cron/v3"
)

// InitPushCleanupCron removes dead push subscriptions: rows that were
// deactivated after repeated delivery failures and have not been
// re-registered for 30 days.
func InitPushCleanupCron() {
	c := cron.New()

	_, err := c.AddFunc("0 4 * * *", func() {
		cleanupPushSubscriptions()
	})
	if err != nil {
		log.Printf("Could not initialize push cleanup cron: %v", err)
		return
	}

	c.Start()
}

func cleanupPushSubscriptions() {
	cutoff := time.Now().AddDate(0, 0, -30)

	result := database.GetDB().
		Where("is_active = ? AND updated_at < ?", false, cutoff).
		Delete(&model.PushSubscription{})
	if result.Error != nil {
		log.Printf("Error cleaning up push subscriptions: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Removed %d stale push subscriptions", result.RowsAffected)
	}
}
