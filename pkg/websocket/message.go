package websocket

import "time"

const MessageTypeNotification = "notification"

// Envelope - "конверт" сообщения. Type подсказывает фронтенду, как обработать Payload.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationPayload - уведомление для "колокольчика".
type NotificationPayload struct {
	EventID   string    `json:"eventId"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
