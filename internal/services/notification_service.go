package services

import (
	"context"

	"go.uber.org/zap"

	"leave-system/internal/events"
	"leave-system/pkg/eventbus"
)

// NotifierInterface - отправка уведомления пользователю. Доставка асинхронная,
// ошибки вызывающему не возвращаются.
type NotifierInterface interface {
	Notify(ctx context.Context, to, subject, body, link string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type BusNotifier struct {
	bus    EventPublisher
	logger *zap.Logger
}

func NewBusNotifier(bus EventPublisher, logger *zap.Logger) NotifierInterface {
	return &BusNotifier{bus: bus, logger: logger}
}

func (n *BusNotifier) Notify(ctx context.Context, to, subject, body, link string) {
	if to == "" {
		n.logger.Warn("Получатель уведомления не определён, отправка пропущена", zap.String("subject", subject))
		return
	}
	n.bus.Publish(ctx, events.NewNotificationRequested(to, subject, body, link))
}
