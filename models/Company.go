package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is a directory entry for a sustainable-tourism business. One per
// owning user; only approved companies appear in the public directory and on
// the map.
type Company struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text"`
	Category    string  `json:"category" gorm:"size:64;index"` // ecoturismo, alojamiento, gastronomia, transporte, agencia, otro
	LogoURL     string  `json:"logoURL" gorm:"size:512"`
	Website     string  `json:"website"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Address     string  `json:"address"`
	City        string  `json:"city" gorm:"index"`
	Country     string  `json:"country"`
	Lat         float32 `json:"lat"`
	Lng         float32 `json:"lng"`

	// Sustainability profile shown on the directory card
	Certifications string `json:"certifications" gorm:"type:text"` // JSON array of labels
	TaxID          string `json:"taxID"`

	// Admin moderation
	Status      string `json:"status" gorm:"type:varchar(20);default:pending;index"` // pending, approved, rejected
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`
	IsActive    bool   `json:"isActive" gorm:"default:true"`

	OwnerID uint `json:"ownerID" gorm:"not null;uniqueIndex"`
	Owner   User `json:"owner" gorm:"foreignKey:OwnerID"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Listings []Listing `json:"listings,omitempty" gorm:"foreignKey:CompanyID"`
}

// CompanyCategories are the accepted directory categories.
var CompanyCategories = []string{"ecoturismo", "alojamiento", "gastronomia", "transporte", "agencia", "otro"}
