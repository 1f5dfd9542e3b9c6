package email

import "fmt"

// DisabledClient satisfies Service when no provider is configured. Every
// send fails with a descriptive error so callers can log and move on.
type DisabledClient struct{}

// NewDisabledService returns an email service that rejects every send.
func NewDisabledService() Service {
	return &DisabledClient{}
}

// SendTenantActivationEmail always fails; set RESEND_API_KEY to enable email.
func (c *DisabledClient) SendTenantActivationEmail(toEmail, tenantID, activationURL string) error {
	return fmt.Errorf("email service disabled: RESEND_API_KEY is not set (activation email for tenant %s not sent)", tenantID)
}
