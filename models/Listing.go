package models

import "gorm.io/gorm"

// Listing is a marketplace offering published by an approved company.
type Listing struct {
	gorm.Model
	CompanyID   uint    `json:"companyID" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text"`
	Category    string  `json:"category" gorm:"size:64;index"` // tour, hospedaje, gastronomia, taller, paquete
	Price       float32 `json:"price"`
	Currency    string  `json:"currency" gorm:"size:8;default:COP"`
	Unit        string  `json:"unit" gorm:"size:32"`     // per_person, per_night, per_group
	Images      string  `json:"images" gorm:"type:text"` // JSON array of URLs
	Duration    string  `json:"duration" gorm:"size:64"`
	Capacity    int     `json:"capacity"`
	City        string  `json:"city" gorm:"index"`
	Lat         float32 `json:"lat"`
	Lng         float32 `json:"lng"`
	IsActive    *bool   `json:"isActive"`

	// Admin moderation
	Status      string `json:"status" gorm:"type:varchar(20);default:pending;index"` // pending, approved, rejected
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`

	Company Company `json:"company" gorm:"foreignKey:CompanyID"`
}

// ListingCategories are the accepted marketplace categories.
var ListingCategories = []string{"tour", "hospedaje", "gastronomia", "taller", "paquete"}
