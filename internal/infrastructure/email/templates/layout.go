// Package templates provides email template layout
package templates

import (
	"bytes"
	"html/template"
	"log"
)

type EmailLayoutProps struct {
	Preheader      string
	Content        string
	FooterText     string
	CompanyAddress string
	PoweredByText  string
	PoweredByURL   string
}

// Internal template data structure with safe HTML typing
type emailTemplateData struct {
	Preheader      string
	Content        template.HTML // Mark as safe HTML to prevent escaping
	FooterText     string
	CompanyAddress string
	PoweredByText  string
	PoweredByURL   string
}

var emailLayoutTemplate = template.Must(template.New("emailLayout").Parse(`
<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Email from Plateful</title>
    <style media="all" type="text/css">
      @media all {
        .btn-primary table td:hover { background-color: #c2410c !important; }
        .btn-primary a:hover { background-color: #c2410c !important; border-color: #c2410c !important; }
      }
      @media only screen and (max-width: 640px) {
        .main p, .main td, .main span { font-size: 15px !important; }
        .wrapper { padding: 10px !important; }
        .content { padding: 0 !important; }
        .container { padding: 0 !important; padding-top: 10px !important; width: 100% !important; }
        .main { border-left-width: 0 !important; border-radius: 0 !important; border-right-width: 0 !important; }
      }
    </style>
  </head>
  <body style="font-family: Helvetica, Arial, sans-serif; font-size: 16px; line-height: 1.4; background-color: #faf8f5; margin: 0; padding: 0;">
    <span class="preheader" style="color: transparent; display: none; height: 0; max-height: 0; max-width: 0; opacity: 0; overflow: hidden; visibility: hidden; width: 0;">{{.Preheader}}</span>
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="body" style="border-collapse: separate; background-color: #faf8f5; width: 100%;" width="100%" bgcolor="#faf8f5">
      <tr>
        <td style="vertical-align: top;" valign="top">&nbsp;</td>
        <td class="container" style="vertical-align: top; max-width: 620px; padding: 0; padding-top: 28px; width: 620px; margin: 0 auto;" width="620" valign="top">
          <div class="content" style="box-sizing: border-box; display: block; margin: 0 auto; max-width: 620px; padding: 0;">
            <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="main" style="border-collapse: separate; background: #ffffff; border: 1px solid #ede8e0; border-radius: 12px; width: 100%;" width="100%">
              <tr>
                <td class="wrapper" style="vertical-align: top; box-sizing: border-box; padding: 28px;" valign="top">
                  {{.Content}}
                </td>
              </tr>
            </table>
            <div class="footer" style="clear: both; padding-top: 28px; text-align: center; width: 100%;">
              <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: 100%;" width="100%">
                <tr>
                  <td class="content-block" style="vertical-align: top; color: #9a9ea6; font-size: 15px; text-align: center;" valign="top" align="center">
                    <span style="color: #9a9ea6;">{{.FooterText}}</span>
                    <br>{{.CompanyAddress}}
                  </td>
                </tr>
                <tr>
                  <td class="content-block powered-by" style="vertical-align: top; color: #9a9ea6; font-size: 15px; text-align: center;" valign="top" align="center">
                    Powered by <a href="{{.PoweredByURL}}" style="color: #9a9ea6; text-decoration: none;">{{.PoweredByText}}</a>
                  </td>
                </tr>
              </table>
            </div>
          </div>
        </td>
        <td style="vertical-align: top;" valign="top">&nbsp;</td>
      </tr>
    </table>
  </body>
</html>`))

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func GetEmailLayout(props EmailLayoutProps) string {
	tagline := "online ordering and menu management for restaurants"

	data := emailTemplateData{
		Preheader:      orDefault(props.Preheader, tagline),
		Content:        template.HTML(props.Content),
		FooterText:     orDefault(props.FooterText, tagline),
		CompanyAddress: orDefault(props.CompanyAddress, "Served fresh from Plateful HQ"),
		PoweredByText:  orDefault(props.PoweredByText, "Plateful"),
		PoweredByURL:   orDefault(props.PoweredByURL, "https://plateful.app"),
	}

	var buf bytes.Buffer
	if err := emailLayoutTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing email layout template: %v", err)
		return "<html><body>Template execution error</body></html>"
	}
	return buf.String()
}
