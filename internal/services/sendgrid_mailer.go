package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SendGridMailer delivers the sign-in and reset links the hosted auth
// provider generates.
type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To      []sendGridEmailAddress `json:"to"`
	Subject string                 `json:"subject"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// SendMagicLink emails a one-time sign-in link.
func (m *SendGridMailer) SendMagicLink(ctx context.Context, toEmail string, link string) error {
	body := fmt.Sprintf(
		"Hi,\n\nUse the link below to sign in to UniLink. It can be used once and expires shortly.\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
		link,
	)
	return m.send(ctx, toEmail, "Your UniLink sign-in link", body)
}

// SendPasswordReset emails a password reset link.
func (m *SendGridMailer) SendPasswordReset(ctx context.Context, toEmail string, link string) error {
	body := fmt.Sprintf(
		"Hi,\n\nUse the link below to reset your UniLink password.\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
		link,
	)
	return m.send(ctx, toEmail, "Reset your UniLink password", body)
}

func (m *SendGridMailer) send(ctx context.Context, toEmail, subject, plain string) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	if m.APIKey == "" {
		return fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return fmt.Errorf("missing MAIL_FROM_EMAIL")
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:      []sendGridEmailAddress{{Email: strings.TrimSpace(toEmail)}},
				Subject: subject,
			},
		},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  "UniLink",
		},
		Content: []sendGridContent{
			{Type: "text/plain", Value: plain},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}
