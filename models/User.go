package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email" gorm:"uniqueIndex"`
	PhoneNumber   string         `json:"phoneNumber"`
	Password      string         `json:"-"`
	CompanyName   string         `json:"companyName"`
	AvatarURL     string         `json:"avatarURL"`
	Bio           string         `json:"bio"`
	City          string         `json:"city"`
	Country       string         `json:"country"`
	Lat           float32        `json:"lat"`
	Lng           float32        `json:"lng"`
	Languages     datatypes.JSON `json:"languages"`
	SavedListings datatypes.JSON `json:"savedListings"`
	AllowsEmails  *bool          `json:"allowsEmails"`
	EmailVerified *bool          `json:"emailVerified"`
	Role          string         `json:"role" gorm:"type:varchar(20);default:viajero;index"` // viajero, empresa, admin, super_admin
	Company       *Company       `json:"company,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
}

// MarshalJSON flattens the datatypes.JSON columns into plain arrays.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		Languages     []string `json:"languages,omitempty"`
		SavedListings []int    `json:"savedListings,omitempty"`
		*Alias
	}{
		Languages:     []string{},
		SavedListings: []int{},
		Alias:         (*Alias)(u),
	}

	if u.Languages != nil {
		var languages []string
		if err := json.Unmarshal(u.Languages, &languages); err == nil {
			aux.Languages = languages
		}
	}

	if u.SavedListings != nil {
		var savedListings []int
		if err := json.Unmarshal(u.SavedListings, &savedListings); err == nil {
			aux.SavedListings = savedListings
		}
	}

	return json.Marshal(aux)
}

// PublicProfile is the subset of user fields exposed to other participants
// in the directory and in conversation summaries.
type PublicProfile struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
	AvatarURL   string `json:"avatarURL"`
	Role        string `json:"role"`
	City        string `json:"city"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CompanyName: u.CompanyName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		City:        u.City,
	}
}
