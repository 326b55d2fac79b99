package routes

import (
	"fmt"
	"strings"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

type CreateMessageInput struct {
	ConversationID *uint  `json:"conversationId"`
	ReceiverID     *uint  `json:"receiverId"`
	Content        string `json:"content"`
	Subject        string `json:"subject" validate:"omitempty,lt=256"`
	Type           string `json:"type" validate:"omitempty,oneof=text listing_card"`
	ListingID      *uint  `json:"listingId"`
}

// CreateMessage handles POST /api/messages: append a message to the target
// conversation and advance its last-message/last-activity pointers. When only
// receiverId is given the conversation is resolved (created) first.
func CreateMessage(ctx iris.Context) {
	var input CreateMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	content := strings.TrimSpace(input.Content)
	if content == "" {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Message content cannot be empty.", ctx)
		return
	}

	var conversation *models.Conversation
	switch {
	case input.ConversationID != nil:
		conversation = loadConversationForParticipant(ctx, *input.ConversationID, claims.ID)
		if conversation == nil {
			return
		}
	case input.ReceiverID != nil:
		if *input.ReceiverID == claims.ID {
			utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
				"Cannot message yourself.", ctx)
			return
		}
		var receiver models.User
		if err := storage.DB.Select("id").First(&receiver, *input.ReceiverID).Error; err != nil {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Receiver not found.", ctx)
			return
		}
		resolved, err := getOrCreateConversation(storage.DB, claims.ID, *input.ReceiverID)
		if err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		conversation = resolved
	default:
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Either conversationId or receiverId is required.", ctx)
		return
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       claims.ID,
		ReceiverID:     conversation.OtherParticipant(claims.ID),
		Content:        content,
		Subject:        input.Subject,
		Type:           input.Type,
		ListingID:      input.ListingID,
	}
	if message.Type == "" {
		message.Type = "text"
	}

	if message.Type == "listing_card" && input.ListingID != nil {
		var listing models.Listing
		if err := storage.DB.First(&listing, *input.ListingID).Error; err == nil {
			message.PreviewTitle = listing.Title
			message.PreviewImageURL = firstImageURL(listing.Images)
		}
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversation.ID).
			Updates(map[string]interface{}{
				"last_message_id": message.ID,
				"last_activity":   message.CreatedAt,
			}).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Notify the receiver by email, off the request path
	var sender models.User
	if err := storage.DB.First(&sender, claims.ID).Error; err == nil {
		senderName := fmt.Sprintf("%s %s", sender.FirstName, sender.LastName)
		if sender.Role == "empresa" && sender.CompanyName != "" {
			senderName = sender.CompanyName
		}
		notificationService := services.NewNotificationService()
		go notificationService.SendMessageNotification(message.ReceiverID, senderName, content)
	}

	ctx.JSON(message)
}

// GetConversationMessages handles GET /api/messages/{conversationID}: the
// full thread oldest to newest. Messages addressed to the caller are marked
// read, so the next conversations listing reports zero unread.
func GetConversationMessages(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	conversationID, err := ctx.Params().GetUint("conversationID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid conversation id.", ctx)
		return
	}

	conversation := loadConversationForParticipant(ctx, conversationID, claims.ID)
	if conversation == nil {
		return
	}

	if err := storage.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, claims.ID, false).
		Update("is_read", true).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	messages := []models.Message{}
	if err := storage.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(messages)
}
