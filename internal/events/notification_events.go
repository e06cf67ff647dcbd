package events

import "github.com/google/uuid"

const NotificationRequestedEvent = "notification.requested"

// NotificationRequested - запрос на доставку уведомления пользователю по email.
// Каналы доставки (почта, Telegram, websocket) выбирает слушатель.
type NotificationRequested struct {
	ID      uuid.UUID
	To      string
	Subject string
	Body    string
	Link    string
}

func NewNotificationRequested(to, subject, body, link string) NotificationRequested {
	return NotificationRequested{
		ID:      uuid.New(),
		To:      to,
		Subject: subject,
		Body:    body,
		Link:    link,
	}
}

// Name - реализуем интерфейс eventbus.Event
func (e NotificationRequested) Name() string {
	return NotificationRequestedEvent
}
