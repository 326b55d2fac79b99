package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailClientSend(t *testing.T) {
	var received sendEmailReq
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "clave-de-prueba", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	t.Setenv("MAIL_API_URL", server.URL)
	t.Setenv("MAIL_API_KEY", "clave-de-prueba")
	t.Setenv("MAIL_FROM_EMAIL", "noreply@festivalnatur.co")
	t.Setenv("MAIL_FROM_NAME", "Festival NATUR")

	client := NewMailClient()
	require.True(t, client.IsConfigured())

	ok, err := client.Send("ana@test.local", "Nuevo mensaje", "<p>Hola</p>")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "noreply@festivalnatur.co", received.Sender["email"])
	require.Len(t, received.To, 1)
	assert.Equal(t, "ana@test.local", received.To[0]["email"])
	assert.Equal(t, "Nuevo mensaje", received.Subject)
	assert.Equal(t, "<p>Hola</p>", received.HTMLContent)
}

func TestMailClientSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	t.Setenv("MAIL_API_URL", server.URL)
	t.Setenv("MAIL_API_KEY", "clave-de-prueba")
	t.Setenv("MAIL_FROM_EMAIL", "noreply@festivalnatur.co")

	client := NewMailClient()
	ok, err := client.Send("ana@test.local", "Nuevo mensaje", "<p>Hola</p>")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestMailClientUnconfiguredSkips(t *testing.T) {
	t.Setenv("MAIL_API_KEY", "")
	t.Setenv("MAIL_FROM_EMAIL", "")

	client := NewMailClient()
	assert.False(t, client.IsConfigured())

	ok, err := client.Send("ana@test.local", "asunto", "cuerpo")
	assert.False(t, ok)
	assert.NoError(t, err)
}
