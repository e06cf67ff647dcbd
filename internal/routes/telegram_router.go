package routes

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/controllers"
	"leave-system/pkg/config"
	"leave-system/pkg/telegram"
)

const telegramWebhookPath = "/webhooks/telegram"

func runTelegramRouter(
	api *echo.Group,
	secureGroup *echo.Group,
	tgController *controllers.TelegramController,
	tgService telegram.ServiceInterface,
	cfg config.TelegramConfig,
	logger *zap.Logger,
) {
	secureGroup.POST("/profile/telegram/generate-token", tgController.HandleGenerateLinkToken)
	secureGroup.DELETE("/profile/telegram", tgController.HandleUnlink)
	api.POST(telegramWebhookPath, tgController.HandleWebhook)

	if tgService == nil || !tgService.Enabled() || cfg.WebhookBaseURL == "" {
		return
	}
	webhookURL := strings.TrimRight(cfg.WebhookBaseURL, "/") + "/api/v1" + telegramWebhookPath
	go func() {
		if err := tgService.SetWebhook(webhookURL); err != nil {
			logger.Error("Не удалось зарегистрировать Telegram Webhook", zap.Error(err))
		}
	}()
}
