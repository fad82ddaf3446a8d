package push

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Subscriptions are deactivated after this many consecutive failures.
const maxErrorCount = 5

type Payload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Badge string                 `json:"badge,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// NewLeadPayload the notification shown when a lead is assigned.
func NewLeadPayload(leadID uint, leadName, leadPhone string) Payload {
	body := leadName
	if leadPhone != "" {
		body = leadName + " • " + leadPhone
	}
	return Payload{
		Title: "New Lead from Daze!",
		Body:  body,
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
		Data: map[string]interface{}{
			"leadId": leadID,
			"url":    fmt.Sprintf("/installer/leads/%d", leadID),
		},
	}
}

// SendToInstaller delivers a payload to every active subscription of
// the installer. Best-effort: per-subscription failures are logged and
// counted, never returned to the caller's request path.
func SendToInstaller(installerID uint, payload Payload) (sent int, failed int) {
	db := database.GetDB()

	var subscriptions []model.PushSubscription
	if err := db.Where("installer_id = ? AND is_active = ?", installerID, true).
		Find(&subscriptions).Error; err != nil {
		log.Printf("Could not fetch push subscriptions for installer %d: %v", installerID, err)
		return 0, 0
	}

	if len(subscriptions) == 0 {
		return 0, 0
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Could not marshal push payload: %v", err)
		return 0, 0
	}

	for _, sub := range subscriptions {
		target := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dhKey,
				Auth:   sub.AuthKey,
			},
		}

		resp, err := webpush.SendNotification(body, target, &webpush.Options{
			Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
			VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
			TTL:             3600,
		})
		if resp != nil {
			resp.Body.Close()
		}

		if err != nil || (resp != nil && resp.StatusCode >= 400) {
			failed++
			recordFailure(&sub, err)
			continue
		}

		sent++
		now := time.Now()
		db.Model(&model.PushSubscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
			"last_used_at": &now,
			"error_count":  0,
		})
	}

	return sent, failed
}

func recordFailure(sub *model.PushSubscription, err error) {
	db := database.GetDB()

	log.Printf("Push delivery failed for subscription %d: %v", sub.ID, err)

	newCount := sub.ErrorCount + 1
	updates := map[string]interface{}{"error_count": newCount}
	if newCount >= maxErrorCount {
		updates["is_active"] = false
		log.Printf("Deactivating push subscription %d after %d consecutive failures", sub.ID, newCount)
	}

	db.Model(&model.PushSubscription{}).Where("id = ?", sub.ID).Updates(updates)
}
