package cron

import (
	"log"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"

	"github.com/robfig/cron/v3"
)

// InitRewardsCron refreshes the cached installer_rewards and
// company_rewards tables every night. Dashboards recompute from raw
// rows per request; the cached totals serve as the nightly snapshot
// and must always converge with recomputation.
func InitRewardsCron() {
	c := cron.New()

	_, err := c.AddFunc("30 2 * * *", func() {
		recomputeAllRewards()
	})
	if err != nil {
		log.Printf("Could not initialize rewards cron: %v", err)
		return
	}

	c.Start()
}

func recomputeAllRewards() {
	log.Println("Recomputing rewards totals...")
	db := database.GetDB()

	var tiers []model.RewardsTier
	if err := db.Order("tier_level asc").Find(&tiers).Error; err != nil {
		log.Printf("Error fetching tiers: %v", err)
		return
	}

	var installers []model.Installer
	if err := db.Find(&installers).Error; err != nil {
		log.Printf("Error fetching installers: %v", err)
		return
	}

	for _, installer := range installers {
		points, err := model.ApprovedPointsForInstaller(db, installer.ID)
		if err != nil {
			log.Printf("Error computing points for installer %d: %v", installer.ID, err)
			continue
		}

		var rewards model.InstallerRewards
		db.FirstOrCreate(&rewards, model.InstallerRewards{InstallerID: installer.ID})

		updates := map[string]interface{}{"total_points": points}
		if tier := model.ResolveTier(tiers, points); tier != nil {
			if rewards.CurrentTierID == nil || *rewards.CurrentTierID != tier.ID {
				now := time.Now()
				updates["current_tier_id"] = tier.ID
				updates["tier_reached_at"] = &now
			}
		}

		if err := db.Model(&rewards).Updates(updates).Error; err != nil {
			log.Printf("Error updating rewards for installer %d: %v", installer.ID, err)
		}
	}

	var companies []model.InstallationCompany
	if err := db.Find(&companies).Error; err != nil {
		log.Printf("Error fetching companies: %v", err)
		return
	}

	for _, company := range companies {
		points, err := model.ApprovedPointsForCompany(db, company.ID)
		if err != nil {
			log.Printf("Error computing points for company %d: %v", company.ID, err)
			continue
		}

		var rewards model.CompanyRewards
		db.FirstOrCreate(&rewards, model.CompanyRewards{CompanyID: company.ID})

		updates := map[string]interface{}{"total_points": points}
		if tier := model.ResolveTier(tiers, points); tier != nil {
			if rewards.CurrentTierID == nil || *rewards.CurrentTierID != tier.ID {
				now := time.Now()
				updates["current_tier_id"] = tier.ID
				updates["tier_reached_at"] = &now
			}
		}

		if err := db.Model(&rewards).Updates(updates).Error; err != nil {
			log.Printf("Error updating rewards for company %d: %v", company.ID, err)
		}
	}

	log.Printf("Rewards recompute done: %d installers, %d companies", len(installers), len(companies))
}
