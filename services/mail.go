package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultMailAPIURL = "https://api.brevo.com/v3/smtp/email"

// MailClient sends transactional email through the Brevo HTTP API. When the
// API key is missing the client stays unconfigured and Send reports failure
// without crashing the request (provider failures are terminal per request,
// callers surface a boolean).
type MailClient struct {
	apiURL     string
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
}

func NewMailClient() *MailClient {
	apiURL := os.Getenv("MAIL_API_URL")
	if apiURL == "" {
		apiURL = defaultMailAPIURL
	}
	return &MailClient{
		apiURL:     apiURL,
		apiKey:     os.Getenv("MAIL_API_KEY"),
		fromEmail:  os.Getenv("MAIL_FROM_EMAIL"),
		fromName:   os.Getenv("MAIL_FROM_NAME"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *MailClient) IsConfigured() bool {
	return m.apiKey != "" && m.fromEmail != ""
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// Send delivers one email. The boolean reports delivery success; a non-nil
// error means the provider could not be reached or rejected the payload.
func (m *MailClient) Send(to, subject, html string) (bool, error) {
	if !m.IsConfigured() {
		log.Printf("mail client not configured, skipping email to %s", to)
		return false, nil
	}

	payload := sendEmailReq{
		Sender:      map[string]string{"email": m.fromEmail, "name": m.fromName},
		To:          []map[string]string{{"email": to}},
		Subject:     subject,
		HTMLContent: html,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequest("POST", m.apiURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	res, err := m.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return false, fmt.Errorf("mail provider returned status %d", res.StatusCode)
	}

	return true, nil
}

// SendMail is the package-level convenience used by route handlers.
func SendMail(to, subject, html string) (bool, error) {
	return NewMailClient().Send(to, subject, html)
}
