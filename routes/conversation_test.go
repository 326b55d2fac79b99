package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// buildMessagingTestApp wires the messaging routes against an in-memory
// database with a JWT verifier, mirroring the production wiring in main.go.
func buildMessagingTestApp(t *testing.T) *iris.Application {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same :memory: database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Company{},
		&models.Listing{},
	))
	storage.DB = db

	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	conversations := app.Party("/api/conversations")
	conversations.Post("/", accessTokenVerifierMiddleware, CreateConversation)

	messages := app.Party("/api/messages")
	messages.Post("/", accessTokenVerifierMiddleware, CreateMessage)
	messages.Get("/conversations", accessTokenVerifierMiddleware, GetConversations)
	messages.Get("/conversations/enhanced", accessTokenVerifierMiddleware, GetEnhancedConversations)
	messages.Get("/{conversationID:uint}", accessTokenVerifierMiddleware, GetConversationMessages)

	require.NoError(t, app.Build())
	return app
}

func signAccessToken(t *testing.T, id uint, role string) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")), time.Hour)
	token, err := signer.Sign(utils.AccessToken{ID: id, Role: role})
	require.NoError(t, err)
	return string(token)
}

func createTestUser(t *testing.T, firstName, role string) models.User {
	t.Helper()
	user := models.User{
		FirstName: firstName,
		LastName:  "Test",
		Email:     fmt.Sprintf("%s@test.local", firstName),
		Role:      role,
	}
	require.NoError(t, storage.DB.Create(&user).Error)
	return user
}

func doJSON(app *iris.Application, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestCreateConversationIsIdempotentAcrossArgumentOrder(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")

	resp := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": bosque.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var first models.Conversation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))
	assert.Nil(t, first.LastMessageID)
	assert.False(t, first.LastActivity.IsZero())

	// Same pair, both orders, must resolve to the same row
	resp2 := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": bosque.ID})
	require.Equal(t, http.StatusOK, resp2.Code)
	resp3 := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, bosque.ID, bosque.Role),
		iris.Map{"receiverId": ana.ID})
	require.Equal(t, http.StatusOK, resp3.Code)

	var second, third models.Conversation
	require.NoError(t, json.Unmarshal(resp2.Body.Bytes(), &second))
	require.NoError(t, json.Unmarshal(resp3.Body.Bytes(), &third))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)

	var count int64
	storage.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateConversationRejectsSelfAndUnknownReceiver(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")

	resp := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": ana.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": 999})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateMessageAdvancesConversationPointers(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")

	resp := doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": bosque.ID, "content": "Hola"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var firstMsg models.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &firstMsg))
	assert.Equal(t, ana.ID, firstMsg.SenderID)
	assert.Equal(t, bosque.ID, firstMsg.ReceiverID)

	time.Sleep(10 * time.Millisecond)

	resp = doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, bosque.ID, bosque.Role),
		iris.Map{"conversationId": firstMsg.ConversationID, "content": "Buenas, ¿cómo podemos ayudarte?"})
	require.Equal(t, http.StatusOK, resp.Code)

	var secondMsg models.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &secondMsg))

	var conversation models.Conversation
	require.NoError(t, storage.DB.First(&conversation, firstMsg.ConversationID).Error)
	require.NotNil(t, conversation.LastMessageID)
	assert.Equal(t, secondMsg.ID, *conversation.LastMessageID)
	assert.WithinDuration(t, secondMsg.CreatedAt, conversation.LastActivity, time.Second)
	assert.True(t, conversation.LastActivity.After(firstMsg.CreatedAt))
}

func TestCreateMessageRejectsBlankContent(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")

	for _, content := range []string{"", "   ", "\n\t "} {
		resp := doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, ana.ID, ana.Role),
			iris.Map{"receiverId": bosque.ID, "content": content})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	}

	var count int64
	storage.DB.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateMessageRequiresParticipant(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")
	intruso := createTestUser(t, "intruso", "viajero")

	resp := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": bosque.ID})
	require.Equal(t, http.StatusOK, resp.Code)
	var conversation models.Conversation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &conversation))

	resp = doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, intruso.ID, intruso.Role),
		iris.Map{"conversationId": conversation.ID, "content": "hola"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doJSON(app, http.MethodGet, fmt.Sprintf("/api/messages/%d", conversation.ID),
		signAccessToken(t, intruso.ID, intruso.Role), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListMessagesReturnsChronologicalOrder(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")

	var conversationID uint
	for i := 0; i < 5; i++ {
		sender, role := ana.ID, ana.Role
		if i%2 == 1 {
			sender, role = bosque.ID, bosque.Role
		}
		resp := doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, sender, role),
			iris.Map{"receiverId": ana.ID + bosque.ID - sender, "content": fmt.Sprintf("mensaje %d", i)})
		require.Equal(t, http.StatusOK, resp.Code)
		var msg models.Message
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msg))
		conversationID = msg.ConversationID
		time.Sleep(5 * time.Millisecond)
	}

	resp := doJSON(app, http.MethodGet, fmt.Sprintf("/api/messages/%d", conversationID),
		signAccessToken(t, ana.ID, ana.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &messages))
	require.Len(t, messages, 5)

	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt),
			"messages must be in non-decreasing timestamp order")
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}
}

func TestEnhancedConversationsUnreadFlow(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")
	bosque := createTestUser(t, "bosque", "empresa")

	// Ana opens the thread and sends a first message
	resp := doJSON(app, http.MethodPost, "/api/conversations", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"receiverId": bosque.ID})
	require.Equal(t, http.StatusOK, resp.Code)
	var conversation models.Conversation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &conversation))
	createdAt := conversation.LastActivity

	time.Sleep(10 * time.Millisecond)

	resp = doJSON(app, http.MethodPost, "/api/messages", signAccessToken(t, ana.ID, ana.Role),
		iris.Map{"conversationId": conversation.ID, "content": "Hola"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Bosque lists conversations: one entry, unread 1, preview "Hola"
	resp = doJSON(app, http.MethodGet, "/api/messages/conversations/enhanced",
		signAccessToken(t, bosque.ID, bosque.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var summaries []models.ConversationSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, conversation.ID, summaries[0].ID)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "Hola", summaries[0].LastMessage.Content)
	assert.Equal(t, ana.ID, summaries[0].OtherUser.ID)
	assert.True(t, summaries[0].LastActivity.After(createdAt))

	// Reading the thread marks the message and zeroes the unread count
	resp = doJSON(app, http.MethodGet, fmt.Sprintf("/api/messages/%d", conversation.ID),
		signAccessToken(t, bosque.ID, bosque.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "Hola", messages[0].Content)
	assert.True(t, messages[0].IsRead)

	resp = doJSON(app, http.MethodGet, "/api/messages/conversations/enhanced",
		signAccessToken(t, bosque.ID, bosque.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	summaries = nil
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)

	// The sender's own copy stays unread-neutral
	resp = doJSON(app, http.MethodGet, "/api/messages/conversations/enhanced",
		signAccessToken(t, ana.ID, ana.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	summaries = nil
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)
	assert.Equal(t, bosque.ID, summaries[0].OtherUser.ID)
}

func TestGetConversationsEmptyForNewUser(t *testing.T) {
	app := buildMessagingTestApp(t)
	ana := createTestUser(t, "ana", "viajero")

	resp := doJSON(app, http.MethodGet, "/api/messages/conversations",
		signAccessToken(t, ana.ID, ana.Role), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}
