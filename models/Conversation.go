package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a persisted thread between exactly two users. The pair is
// stored normalized (Participant1ID < Participant2ID) and carries a unique
// index so concurrent create-or-get calls converge on a single row.
type Conversation struct {
	gorm.Model
	Participant1ID uint      `json:"participant1ID" gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1"`
	Participant2ID uint      `json:"participant2ID" gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2"`
	LastMessageID  *uint     `json:"lastMessageID"`
	LastActivity   time.Time `json:"lastActivity" gorm:"index"`
	Participant1   User      `json:"-" gorm:"foreignKey:Participant1ID"`
	Participant2   User      `json:"-" gorm:"foreignKey:Participant2ID"`
}

// NormalizePair orders two participant ids ascending. Lookups and inserts
// always go through this so (A,B) and (B,A) hit the same row.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// HasParticipant reports whether userID occupies either slot.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// ConversationSummary is the read model for the conversation list: the stored
// row enriched with the other participant's public profile, the last message
// preview and the caller's unread count. It is assembled by the query service,
// never persisted.
type ConversationSummary struct {
	Conversation
	OtherUser   PublicProfile `json:"otherUser"`
	LastMessage *Message      `json:"lastMessage,omitempty"`
	UnreadCount int64         `json:"unreadCount"`
}
