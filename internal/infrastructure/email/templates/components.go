// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"
	"net/url"
	"strings"
)

type ButtonProps struct {
	Text            string
	URL             string
	BackgroundColor string
	TextColor       string
}

// Compiled templates for email components. Free-text values flow through
// html/template execution, which escapes them.
var (
	buttonTemplate = template.Must(template.New("emailButton").Parse(`
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="btn btn-primary" style="border-collapse: separate; box-sizing: border-box; width: 100%; min-width: 100%;" width="100%">
      <tbody>
        <tr>
          <td align="left" style="font-size: 16px; vertical-align: top; padding-bottom: 18px;" valign="top">
            <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: auto;">
              <tbody>
                <tr>
                  <td style="font-size: 16px; vertical-align: top; border-radius: 6px; text-align: center; background-color: {{.BackgroundColor}};" valign="top" align="center" bgcolor="{{.BackgroundColor}}">
                    <a href="{{.URL}}" target="_blank" style="border: solid 2px {{.BackgroundColor}}; border-radius: 6px; box-sizing: border-box; cursor: pointer; display: inline-block; font-size: 16px; font-weight: bold; margin: 0; padding: 12px 28px; text-decoration: none; background-color: {{.BackgroundColor}}; border-color: {{.BackgroundColor}}; color: {{.TextColor}};">{{.Text}}</a>
                  </td>
                </tr>
              </tbody>
            </table>
          </td>
        </tr>
      </tbody>
    </table>`))

	paragraphTemplate = template.Must(template.New("emailParagraph").Parse(`<p style="font-size: 16px; margin: 0; margin-bottom: 18px;">{{.}}</p>`))

	strongParagraphTemplate = template.Must(template.New("emailStrongParagraph").Parse(`<p style="font-size: 16px; margin: 0; margin-bottom: 18px;"><strong>{{.}}</strong></p>`))
)

func GetButton(props ButtonProps) string {
	link := safeEmailURL(props.URL)
	if link == "" {
		log.Printf("Invalid or unsafe URL in email button: %s", props.URL)
		link = "#"
	}

	data := struct {
		BackgroundColor, URL, TextColor, Text string
	}{
		BackgroundColor: safeHexColor(orDefault(props.BackgroundColor, "#ea580c")),
		URL:             link,
		TextColor:       safeHexColor(orDefault(props.TextColor, "#ffffff")),
		Text:            props.Text,
	}

	var buf bytes.Buffer
	if err := buttonTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing email button template: %v", err)
		return `<div style="color: red;">Button template error</div>`
	}
	return buf.String()
}

// GetParagraph renders a paragraph with all HTML in the text escaped.
func GetParagraph(text string) string {
	var buf bytes.Buffer
	if err := paragraphTemplate.Execute(&buf, text); err != nil {
		log.Printf("Error executing email paragraph template: %v", err)
		return `<div style="color: red;">Paragraph template error</div>`
	}
	return buf.String()
}

// GetStrongParagraph renders a bolded paragraph with all HTML in the text escaped.
func GetStrongParagraph(text string) string {
	var buf bytes.Buffer
	if err := strongParagraphTemplate.Execute(&buf, text); err != nil {
		log.Printf("Error executing email paragraph template: %v", err)
		return `<div style="color: red;">Paragraph template error</div>`
	}
	return buf.String()
}

// safeEmailURL rejects anything but http, https and mailto links.
func safeEmailURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		log.Printf("Invalid email URL: %s, error: %v", raw, err)
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return u.String()
	}
	log.Printf("Blocked unsafe URL scheme in email: %s", u.Scheme)
	return ""
}

// safeHexColor validates hex color values, falling back to black.
func safeHexColor(color string) string {
	color = strings.TrimSpace(color)
	if !strings.HasPrefix(color, "#") {
		return "#000000"
	}
	hex := color[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return "#000000"
	}
	for _, ch := range hex {
		switch {
		case ch >= '0' && ch <= '9', ch >= 'a' && ch <= 'f', ch >= 'A' && ch <= 'F':
		default:
			return "#000000"
		}
	}
	return color
}
