package listeners

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"leave-system/internal/events"
	"leave-system/internal/repositories"
	"leave-system/pkg/config"
	"leave-system/pkg/eventbus"
	"leave-system/pkg/mailer"
	"leave-system/pkg/metrics"
	"leave-system/pkg/telegram"
	"leave-system/pkg/websocket"
)

const (
	channelMail      = "mail"
	channelTelegram  = "telegram"
	channelWebsocket = "websocket"
)

// WebSocketPusher - часть websocket.Hub, нужная слушателю.
type WebSocketPusher interface {
	SendMessageToUser(userID uint64, payload interface{}, messageType string) error
}

// NotificationListener доставляет уведомления по всем доступным каналам.
// Ошибки доставки только логируются и попадают в метрики.
type NotificationListener struct {
	userRepo    repositories.UserRepositoryInterface
	mailer      mailer.Sender
	telegram    telegram.ServiceInterface
	ws          WebSocketPusher
	metrics     *metrics.Metrics
	appName     string
	frontendCfg config.FrontendConfig
	logger      *zap.Logger
}

func NewNotificationListener(
	userRepo repositories.UserRepositoryInterface,
	mailSender mailer.Sender,
	telegramService telegram.ServiceInterface,
	ws WebSocketPusher,
	m *metrics.Metrics,
	mailCfg config.MailConfig,
	frontendCfg config.FrontendConfig,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		userRepo:    userRepo,
		mailer:      mailSender,
		telegram:    telegramService,
		ws:          ws,
		metrics:     m,
		appName:     mailCfg.AppName,
		frontendCfg: frontendCfg,
		logger:      logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.NotificationRequestedEvent, l.handleNotificationRequested)
	l.logger.Info("NotificationListener подписан на событие", zap.String("event", events.NotificationRequestedEvent))
}

func (l *NotificationListener) handleNotificationRequested(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.NotificationRequested)
	if !ok {
		l.logger.Warn("Получено событие неожиданного типа", zap.String("event", event.Name()))
		return nil
	}

	link := l.buildLink(e.Link)
	firstName := ""

	user, err := l.userRepo.FindByEmail(ctx, nil, e.To)
	if err != nil {
		// Письмо всё равно уходит: адресат мог быть только что удалён.
		l.logger.Warn("Получатель уведомления не найден в справочнике", zap.String("to", e.To), zap.Error(err))
	} else {
		firstName = user.FirstName
	}

	email := mailer.BuildNotificationEmail(e.To, mailer.NotificationEmailData{
		AppName:   l.appName,
		FirstName: firstName,
		Subject:   e.Subject,
		Body:      e.Body,
		Link:      link,
	})
	err = l.mailer.Send(ctx, email)
	l.record(channelMail, err)
	if err != nil {
		l.logger.Error("Не удалось отправить письмо", zap.String("to", e.To), zap.Error(err))
	}

	if user == nil {
		return nil
	}

	if l.telegram != nil && l.telegram.Enabled() && user.TelegramChatID.Valid && user.TelegramChatID.Int64 != 0 {
		err = l.telegram.SendMessage(ctx, user.TelegramChatID.Int64, formatTelegramMessage(e.Subject, e.Body, link))
		l.record(channelTelegram, err)
		if err != nil {
			l.logger.Error("Не удалось отправить уведомление в Telegram", zap.Uint64("userID", user.ID), zap.Error(err))
		}
	}

	if l.ws != nil {
		payload := websocket.NotificationPayload{
			EventID:   e.ID.String(),
			Subject:   e.Subject,
			Message:   e.Body,
			Link:      link,
			CreatedAt: time.Now().UTC(),
		}
		err = l.ws.SendMessageToUser(user.ID, payload, websocket.MessageTypeNotification)
		l.record(channelWebsocket, err)
		if err != nil {
			l.logger.Error("Не удалось отправить WebSocket-уведомление", zap.Uint64("userID", user.ID), zap.Error(err))
		}
	}
	return nil
}

func (l *NotificationListener) record(channel string, err error) {
	l.metrics.NotificationDelivered(channel, err)
}

func (l *NotificationListener) buildLink(path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimRight(l.frontendCfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func formatTelegramMessage(subject, body, link string) string {
	msg := fmt.Sprintf("%s\n\n%s", subject, body)
	if link != "" {
		msg += "\n\n" + link
	}
	return msg
}
