package seed

import (
	"log"

	"daze_backend/internal/model"

	"gorm.io/gorm"
)

type productSeed struct {
	Code   string
	Name   string
	Points int
}

// Wallbox catalog. Codes are the 4-character family segment of the
// serial; points are what an approved installation of that unit earns.
var products = []productSeed{
	{"DB07", "Dazebox C", 50},
	{"DT01", "Dazebox Home T", 60},
	{"DS01", "Dazebox Home S", 60},
	{"DK01", "Dazebox Home TK", 70},
	{"DT02", "Dazebox Share T", 80},
	{"DS02", "Dazebox Share S", 80},
	{"DK02", "Dazebox Share TK", 90},
	{"UT01", "Urban T", 100},
	{"US01", "Urban S", 100},
	{"OT01", "Duo T", 120},
	{"OS01", "Duo S", 120},
}

type tierSeed struct {
	Name           string
	Level          int
	DisplayName    string
	PointsRequired int
	BadgeColor     string
}

var tiers = []tierSeed{
	{"Bronze", 1, "Bronze", 100, "#CD7F32"},
	{"Silver", 2, "Silver", 500, "#C0C0C0"},
	{"Gold", 3, "Gold", 1500, "#FFD700"},
	{"Platinum", 4, "Platinum", 3000, "#E5E4E2"},
	{"Diamond", 5, "Diamond", 6000, "#B9F2FF"},
}

// Run upserts the product catalog and the tier ladder. Idempotent, safe
// to call on every startup. Points and thresholds of existing rows are
// updated in place so catalog changes only need a deploy.
func Run(db *gorm.DB) {
	for _, p := range products {
		var product model.Product
		err := db.Where("code = ?", p.Code).First(&product).Error
		if err == gorm.ErrRecordNotFound {
			product = model.Product{Code: p.Code, Name: p.Name, Points: p.Points, IsActive: true}
			if err := db.Create(&product).Error; err != nil {
				log.Printf("Error seeding product %s: %v", p.Code, err)
			}
			continue
		}
		if err != nil {
			log.Printf("Error looking up product %s: %v", p.Code, err)
			continue
		}
		if err := db.Model(&product).Updates(map[string]interface{}{
			"name":   p.Name,
			"points": p.Points,
		}).Error; err != nil {
			log.Printf("Error updating product %s: %v", p.Code, err)
		}
	}

	for _, t := range tiers {
		var tier model.RewardsTier
		err := db.Where("tier_name = ?", t.Name).First(&tier).Error
		if err == gorm.ErrRecordNotFound {
			tier = model.RewardsTier{
				TierName:       t.Name,
				TierLevel:      t.Level,
				DisplayName:    t.DisplayName,
				PointsRequired: t.PointsRequired,
				BadgeColor:     t.BadgeColor,
			}
			if err := db.Create(&tier).Error; err != nil {
				log.Printf("Error seeding tier %s: %v", t.Name, err)
			}
			continue
		}
		if err != nil {
			log.Printf("Error looking up tier %s: %v", t.Name, err)
			continue
		}
		if err := db.Model(&tier).Updates(map[string]interface{}{
			"tier_level":      t.Level,
			"points_required": t.PointsRequired,
			"badge_color":     t.BadgeColor,
		}).Error; err != nil {
			log.Printf("Error updating tier %s: %v", t.Name, err)
		}
	}

	log.Println("Seed data in place")
}
