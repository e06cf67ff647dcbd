package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type TelegramController struct {
	linkService services.TelegramLinkServiceInterface
	logger      *zap.Logger
}

func NewTelegramController(linkService services.TelegramLinkServiceInterface, logger *zap.Logger) *TelegramController {
	return &TelegramController{linkService: linkService, logger: logger}
}

func (c *TelegramController) HandleGenerateLinkToken(ctx echo.Context) error {
	token, err := c.linkService.GenerateLinkToken(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]string{"token": token}, "Токен для привязки сгенерирован", http.StatusOK)
}

func (c *TelegramController) HandleUnlink(ctx echo.Context) error {
	if err := c.linkService.Unlink(ctx.Request().Context()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Telegram отвязан", http.StatusOK)
}

// HandleWebhook сразу отвечает 200, иначе Telegram будет повторять доставку.
func (c *TelegramController) HandleWebhook(ctx echo.Context) error {
	var update TelegramUpdate
	if err := ctx.Bind(&update); err != nil {
		c.logger.Error("Не удалось распарсить обновление от Telegram", zap.Error(err))
		return ctx.NoContent(http.StatusBadRequest)
	}
	if update.Message == nil || update.Message.Text == "" {
		return ctx.NoContent(http.StatusOK)
	}

	chatID, text := update.Message.Chat.ID, update.Message.Text
	c.logger.Info("Получено сообщение от Telegram", zap.Int64("chatID", chatID), zap.Int("updateID", update.UpdateID))
	go c.linkService.HandleMessage(context.Background(), chatID, text)

	return ctx.NoContent(http.StatusOK)
}

type TelegramUpdate struct {
	UpdateID int              `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	MessageID int          `json:"message_id"`
	Chat      TelegramChat `json:"chat"`
	Text      string       `json:"text"`
}

type TelegramChat struct {
	ID int64 `json:"id"`
}
