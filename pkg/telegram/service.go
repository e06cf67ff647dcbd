// Файл: pkg/telegram/service.go
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SetWebhook регистрирует адрес, на который Telegram будет присылать обновления.
	SetWebhook(webhookURL string) error
	Enabled() bool
}

// botAPI - часть клиента tgbotapi, которая нужна сервису.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Service struct {
	bot    botAPI
	logger *zap.Logger
}

// NewService подключается к Bot API. Пустой токен даёт выключенный сервис.
func NewService(botToken string, logger *zap.Logger) (ServiceInterface, error) {
	if botToken == "" {
		logger.Info("Telegram: токен не задан, уведомления в Telegram отключены")
		return &Service{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Telegram Bot API: %w", err)
	}
	logger.Info("Telegram: бот авторизован", zap.String("username", bot.Self.UserName))
	return &Service{bot: bot, logger: logger}, nil
}

func newServiceWithBot(bot botAPI, logger *zap.Logger) *Service {
	return &Service{bot: bot, logger: logger}
}

func (s *Service) Enabled() bool {
	return s.bot != nil
}

func (s *Service) SendMessage(ctx context.Context, chatID int64, text string) error {
	if s.bot == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки сообщения в Telegram (chat %d): %w", chatID, err)
	}
	return nil
}

func (s *Service) SetWebhook(webhookURL string) error {
	if s.bot == nil {
		return nil
	}
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("неверный адрес вебхука %q: %w", webhookURL, err)
	}
	if _, err := s.bot.Request(wh); err != nil {
		return fmt.Errorf("ошибка регистрации вебхука: %w", err)
	}
	s.logger.Info("Telegram Webhook зарегистрирован", zap.String("url", webhookURL))
	return nil
}
