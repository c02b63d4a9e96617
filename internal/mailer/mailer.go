package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer dispatches transactional email. Delivery is fire-and-forget: callers
// log failures and continue.
type Mailer interface {
	SendVerificationEmail(to, token string) error
	SendPasswordResetEmail(to, token string) error
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewResendMailer(apiKey, from, baseURL string) *ResendMailer {
	return &ResendMailer{
		apiKey:     apiKey,
		from:       from,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ResendMailer) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email/%s", m.baseURL, token)
	html := fmt.Sprintf(
		`<p>Welcome to CloudFlow!</p>`+
			`<p><a href="%s">Click here to verify your email</a></p>`+
			`<p>This link expires in 24 hours.</p>`,
		link,
	)
	return m.send(to, "Verify Your Email - CloudFlow", html)
}

func (m *ResendMailer) SendPasswordResetEmail(to, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.baseURL, token)
	html := fmt.Sprintf(
		`<p>We received a request to reset your CloudFlow password.</p>`+
			`<p><a href="%s">Click here to choose a new password</a></p>`+
			`<p>This link expires in 1 hour. If you didn't request this, ignore this email.</p>`,
		link,
	)
	return m.send(to, "Password Reset - CloudFlow", html)
}

func (m *ResendMailer) send(to, subject, html string) error {
	body := resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopMailer is used when no API key is configured (local development, tests).
type NoopMailer struct{}

func (NoopMailer) SendVerificationEmail(to, token string) error  { return nil }
func (NoopMailer) SendPasswordResetEmail(to, token string) error { return nil }
