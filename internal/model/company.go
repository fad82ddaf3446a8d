package model

import "gorm.io/gorm"

type InstallationCompany struct {
	gorm.Model
	CompanyName  string `json:"company_name" gorm:"not null"`
	VatNumber    string `json:"vat_number"`
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ZipCode      string `json:"zip_code"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	LogoURL      string `json:"logo_url"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	// Onboarding checklist state, company-scoped UI progress only
	OnboardingStep      int  `json:"onboarding_step" gorm:"default:0"`
	OnboardingCompleted bool `json:"onboarding_completed" gorm:"default:false"`
	OnboardingSkipped   bool `json:"onboarding_skipped" gorm:"default:false"`

	Installers []Installer `json:"installers,omitempty" gorm:"foreignKey:CompanyID"`
}

func (InstallationCompany) TableName() string {
	return "installation_companies"
}

func (c *InstallationCompany) GetInstallerCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Installer{}).Where("company_id = ?", c.ID).Count(&count).Error
	return count, err
}
