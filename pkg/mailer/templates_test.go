package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/pkg/config"
)

func TestBuildNotificationEmail(t *testing.T) {
	email := BuildNotificationEmail("ivan@corp.tj", NotificationEmailData{
		AppName:   "Leave System",
		FirstName: "Иван",
		Subject:   "Заявка создана",
		Body:      "Ваша заявка создана.\nОжидайте решения.",
		Link:      "http://localhost:4200/leaves",
	})

	assert.Equal(t, "ivan@corp.tj", email.To)
	assert.Equal(t, "Заявка создана", email.Subject)
	assert.Contains(t, email.TextBody, "Здравствуйте, Иван!")
	assert.Contains(t, email.TextBody, "Ожидайте решения.")
	assert.Contains(t, email.HTMLBody, "<p style=\"margin: 0 0 8px;\">Ожидайте решения.</p>")
	assert.Contains(t, email.HTMLBody, "http://localhost:4200/leaves")
}

func TestBuildNotificationEmail_EscapesBody(t *testing.T) {
	email := BuildNotificationEmail("a@b.io", NotificationEmailData{AppName: "X", Body: "<script>alert(1)</script>"})
	assert.NotContains(t, email.HTMLBody, "<script>")
}

func TestNew_WithoutHostFallsBackToLog(t *testing.T) {
	sender, err := New(config.MailConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, sender.Send(context.Background(), Email{To: "a@b.io", Subject: "s", TextBody: "b"}))
}
