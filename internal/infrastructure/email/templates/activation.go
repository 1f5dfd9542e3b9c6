// Package templates provides email activation template
package templates

import "fmt"

type ActivationEmailProps struct {
	Name            string
	ActivationURL   string
	TenantID        string
	ExpirationHours int
}

func GetActivationEmailContent(props ActivationEmailProps) string {
	expirationHours := props.ExpirationHours
	if expirationHours == 0 {
		expirationHours = 48
	}

	content := GetParagraph(fmt.Sprintf("Hello %s,", props.Name)) +
		GetParagraph("Thank you for bringing your restaurant to Plateful. Please click the button below to activate your dashboard:") +
		GetButton(ButtonProps{
			Text: "Activate Your Restaurant",
			URL:  props.ActivationURL,
		}) +
		GetParagraph("Once activated, your team can sign in to the dashboard at:") +
		GetStrongParagraph(fmt.Sprintf("https://%s.plateful.app", props.TenantID)) +
		GetParagraph(fmt.Sprintf("This activation link will expire in %d hours.", expirationHours))

	return content
}
