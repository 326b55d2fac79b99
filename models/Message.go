package models

import "gorm.io/gorm"

type Message struct {
	gorm.Model
	ConversationID uint   `json:"conversationID" gorm:"not null;index"`
	SenderID       uint   `json:"senderID" gorm:"not null"`
	ReceiverID     uint   `json:"receiverID" gorm:"not null;index"`
	Content        string `json:"content" gorm:"type:text"`
	Subject        string `json:"subject" gorm:"size:256"`
	// Optional typed payload for rich messages (e.g. a marketplace card)
	Type            string `json:"type" gorm:"size:32"` // text | listing_card
	ListingID       *uint  `json:"listingID" gorm:"index"`
	PreviewTitle    string `json:"previewTitle" gorm:"size:256"`
	PreviewImageURL string `json:"previewImageURL" gorm:"size:512"`
	IsRead          bool   `json:"isRead" gorm:"default:false;index"`
}
