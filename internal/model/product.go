package model

import "gorm.io/gorm"

// Product catalog entry. Code matches the 4-char family segment of a
// wallbox serial (e.g. DT01 in 25DT0101143).
type Product struct {
	gorm.Model
	Code     string `json:"code" gorm:"uniqueIndex;not null"`
	Name     string `json:"name" gorm:"not null"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Points   int    `json:"points" gorm:"not null;default:0"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// ActiveProducts the catalog as supplied to the serial parser.
func ActiveProducts(db *gorm.DB) ([]Product, error) {
	var products []Product
	err := db.Where("is_active = ?", true).Order("code asc").Find(&products).Error
	return products, err
}
