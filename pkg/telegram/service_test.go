package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBot struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	err      error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestService_Disabled(t *testing.T) {
	svc, err := NewService("", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.SendMessage(context.Background(), 1, "текст"))
}

func TestService_SendMessage(t *testing.T) {
	bot := &fakeBot{}
	svc := newServiceWithBot(bot, zap.NewNop())

	require.NoError(t, svc.SendMessage(context.Background(), 42, "Заявка одобрена"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "Заявка одобрена", bot.sent[0].Text)
}

func TestService_SendMessageError(t *testing.T) {
	svc := newServiceWithBot(&fakeBot{err: errors.New("blocked")}, zap.NewNop())
	assert.Error(t, svc.SendMessage(context.Background(), 42, "x"))
}

func TestService_SetWebhook(t *testing.T) {
	bot := &fakeBot{}
	svc := newServiceWithBot(bot, zap.NewNop())

	require.NoError(t, svc.SetWebhook("https://leave.example.tj/api/v1/webhooks/telegram"))
	require.Len(t, bot.requests, 1)
	wh, ok := bot.requests[0].(tgbotapi.WebhookConfig)
	require.True(t, ok)
	assert.Equal(t, "leave.example.tj", wh.URL.Host)

	assert.Error(t, svc.SetWebhook("://bad"))
}
