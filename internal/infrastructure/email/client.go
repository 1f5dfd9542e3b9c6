// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/plateful/plateful-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendTenantActivationEmail(toEmail, tenantID, activationURL string) error
}

// ResendClient sends through the Resend API.
type ResendClient struct {
	client *resend.Client
	from   string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	name := envOr("TENANT_EMAIL_FROM_NAME", "Plateful")
	addr := envOr("TENANT_EMAIL_FROM", "noreply@plateful.app")

	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", name, addr),
	}, nil
}

// SendTenantActivationEmail composes and sends the restaurant activation email.
func (c *ResendClient) SendTenantActivationEmail(toEmail, tenantID, activationURL string) error {
	content := templates.GetActivationEmailContent(templates.ActivationEmailProps{
		Name:            "there",
		ActivationURL:   activationURL,
		TenantID:        tenantID,
		ExpirationHours: 48,
	})

	_, err := c.client.Emails.Send(&resend.SendEmailRequest{
		From:    c.from,
		To:      []string{toEmail},
		Subject: "Activate your Plateful restaurant",
		Html:    templates.GetEmailLayout(templates.EmailLayoutProps{Content: content}),
	})
	if err != nil {
		return fmt.Errorf("failed to send activation email via Resend: %w", err)
	}
	return nil
}
