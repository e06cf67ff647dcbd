package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

// NotificationEmailData - данные письма-уведомления.
type NotificationEmailData struct {
	AppName   string
	FirstName string
	Subject   string
	Body      string
	Link      string
}

var notificationTmpl = template.Must(template.New("notification").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(notificationHTMLTemplate))

func BuildNotificationEmail(to string, data NotificationEmailData) Email {
	return Email{
		To:       to,
		Subject:  data.Subject,
		TextBody: buildNotificationText(data),
		HTMLBody: buildNotificationHTML(data),
	}
}

func buildNotificationText(data NotificationEmailData) string {
	var buf bytes.Buffer
	if data.FirstName != "" {
		buf.WriteString("Здравствуйте, " + data.FirstName + "!\n\n")
	}
	buf.WriteString(data.Body + "\n")
	if data.Link != "" {
		buf.WriteString("\n" + data.Link + "\n")
	}
	buf.WriteString("\n-- \n" + data.AppName + "\n")
	return buf.String()
}

func buildNotificationHTML(data NotificationEmailData) string {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Subject}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 20px; color: #0f766e;">{{.AppName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px; font-size: 15px; color: #374151; line-height: 1.5;">
              {{if .FirstName}}<p style="margin: 0 0 16px;">Здравствуйте, {{.FirstName}}!</p>{{end}}
              {{range lines .Body}}<p style="margin: 0 0 8px;">{{.}}</p>{{end}}
              {{if .Link}}<p style="margin: 24px 0 0;"><a href="{{.Link}}" style="color: #0f766e;">Открыть в системе</a></p>{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
