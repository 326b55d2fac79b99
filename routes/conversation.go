package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateConversationInput struct {
	ReceiverID uint `json:"receiverId" validate:"required"`
}

// getOrCreateConversation resolves the single conversation for a pair of
// users, creating it when missing. The pair is normalized and inserted with
// ON CONFLICT DO NOTHING, so two concurrent calls for the same pair land on
// the same row.
func getOrCreateConversation(db *gorm.DB, userA, userB uint) (*models.Conversation, error) {
	p1, p2 := models.NormalizePair(userA, userB)

	conversation := models.Conversation{
		Participant1ID: p1,
		Participant2ID: p2,
		LastActivity:   time.Now(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conversation)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race or the pair already talked; fetch the winner.
			return tx.Where("participant1_id = ? AND participant2_id = ?", p1, p2).
				First(&conversation).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// CreateConversation handles POST /api/conversations: create-or-get the
// conversation between the caller and receiverId.
func CreateConversation(ctx iris.Context) {
	var input CreateConversationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	if input.ReceiverID == claims.ID {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Cannot start a conversation with yourself.", ctx)
		return
	}

	var receiver models.User
	if err := storage.DB.Select("id").First(&receiver, input.ReceiverID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Receiver not found.", ctx)
		return
	}

	conversation, err := getOrCreateConversation(storage.DB, claims.ID, input.ReceiverID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(conversation)
}

// GetConversations handles GET /api/messages/conversations: the caller's
// conversations sorted by most recent activity.
func GetConversations(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	conversations := []models.Conversation{}
	if err := storage.DB.
		Where("participant1_id = ? OR participant2_id = ?", claims.ID, claims.ID).
		Order("last_activity DESC").
		Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(conversations)
}

// GetEnhancedConversations handles GET /api/messages/conversations/enhanced:
// each conversation enriched with the other participant's public profile, the
// last message preview and the caller's unread count.
func GetEnhancedConversations(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var conversations []models.Conversation
	if err := storage.DB.
		Where("participant1_id = ? OR participant2_id = ?", claims.ID, claims.ID).
		Order("last_activity DESC").
		Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	if len(conversations) == 0 {
		ctx.JSON(summaries)
		return
	}

	otherIDs := make([]uint, 0, len(conversations))
	lastMessageIDs := make([]uint, 0, len(conversations))
	for i := range conversations {
		otherIDs = append(otherIDs, conversations[i].OtherParticipant(claims.ID))
		if conversations[i].LastMessageID != nil {
			lastMessageIDs = append(lastMessageIDs, *conversations[i].LastMessageID)
		}
	}

	var others []models.User
	storage.DB.Where("id IN ?", otherIDs).Find(&others)
	profiles := make(map[uint]models.PublicProfile, len(others))
	for i := range others {
		profiles[others[i].ID] = others[i].PublicProfile()
	}

	lastMessages := make(map[uint]models.Message)
	if len(lastMessageIDs) > 0 {
		var msgs []models.Message
		storage.DB.Where("id IN ?", lastMessageIDs).Find(&msgs)
		for i := range msgs {
			lastMessages[msgs[i].ID] = msgs[i]
		}
	}

	unread := make(map[uint]int64)
	rows, err := storage.DB.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", claims.ID, false).
		Group("conversation_id").Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var conversationID uint
			var count int64
			if scanErr := rows.Scan(&conversationID, &count); scanErr == nil {
				unread[conversationID] = count
			}
		}
	}

	for i := range conversations {
		summary := models.ConversationSummary{
			Conversation: conversations[i],
			OtherUser:    profiles[conversations[i].OtherParticipant(claims.ID)],
			UnreadCount:  unread[conversations[i].ID],
		}
		if conversations[i].LastMessageID != nil {
			if msg, ok := lastMessages[*conversations[i].LastMessageID]; ok {
				summary.LastMessage = &msg
			}
		}
		summaries = append(summaries, summary)
	}

	ctx.JSON(summaries)
}

// Typing indicator: set a short-lived key in Redis for 5 seconds
func Typing(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	conversation := loadConversationForParticipant(ctx, conversationID, claims.ID)
	if conversation == nil {
		return
	}

	key := typingKey(conversationID, claims.ID)
	storage.Redis.Set(ctx, key, "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports whether the other participant is currently typing
func ListTyping(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	conversation := loadConversationForParticipant(ctx, conversationID, claims.ID)
	if conversation == nil {
		return
	}

	otherID := conversation.OtherParticipant(claims.ID)
	typing := false
	if val, getErr := storage.Redis.Get(ctx, typingKey(conversationID, otherID)).Result(); getErr == nil && val == "1" {
		typing = true
	}

	ctx.JSON(iris.Map{"success": true, "typing": typing})
}

// loadConversationForParticipant fetches a conversation and enforces that
// userID is one of its two participants. Writes the error response itself and
// returns nil when the caller should stop.
func loadConversationForParticipant(ctx iris.Context, conversationID, userID uint) *models.Conversation {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, conversationID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Conversation not found.", ctx)
		return nil
	}

	if !conversation.HasParticipant(userID) {
		ctx.StopWithStatus(http.StatusForbidden)
		return nil
	}

	return &conversation
}

func typingKey(conversationID uint, userID uint) string {
	return fmt.Sprintf("typing:conv:%d:user:%d", conversationID, userID)
}
