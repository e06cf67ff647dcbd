package services

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/utils"
)

type recordingBot struct {
	replies map[int64][]string
}

func newRecordingBot() *recordingBot {
	return &recordingBot{replies: make(map[int64][]string)}
}

func (b *recordingBot) SendMessage(_ context.Context, chatID int64, text string) error {
	b.replies[chatID] = append(b.replies[chatID], text)
	return nil
}

func (b *recordingBot) SetWebhook(string) error { return nil }

func (b *recordingBot) Enabled() bool { return true }

func (b *recordingBot) last(chatID int64) string {
	replies := b.replies[chatID]
	if len(replies) == 0 {
		return ""
	}
	return replies[len(replies)-1]
}

func newTelegramLinkFixture() (*TelegramLinkService, *fakeUserRepo, *fakeCache, *recordingBot) {
	returnDate := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	users := newFakeUserRepo(
		&entities.User{ID: 7, FirstName: "Нилуфар", LastName: "Каримова", Email: "nilufar@corp.tj", Role: constants.RoleUser, LeaveDays: 12.5, ExternalActivitiesLimit: 2},
		&entities.User{ID: 8, FirstName: "Бахтиёр", LastName: "Саидов", Email: "bakhtiyor@corp.tj", Role: constants.RoleUser,
			OnLeave: true, ReturnDate: &returnDate, TelegramChatID: sql.NullInt64{Int64: 500, Valid: true}},
	)
	cache := newFakeCache()
	bot := newRecordingBot()
	s := NewTelegramLinkService(passThroughTx{}, users, cache, bot, zap.NewNop())
	return s, users, cache, bot
}

func actorCtx(id uint64, email string) context.Context {
	return utils.WithActor(context.Background(), utils.Actor{ID: id, Email: email, Role: constants.RoleUser})
}

func TestTelegramLink_GenerateAndConfirm(t *testing.T) {
	s, users, cache, _ := newTelegramLinkFixture()

	token, err := s.GenerateLinkToken(actorCtx(7, "nilufar@corp.tj"))
	require.NoError(t, err)
	assert.True(t, isLinkToken(token))

	linked, err := s.ConfirmLink(context.Background(), token, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), linked.ID)
	assert.Equal(t, sql.NullInt64{Int64: 100, Valid: true}, users.get(7).TelegramChatID)

	_, err = cache.Get(context.Background(), telegramLinkTokenPrefix+token)
	assert.Error(t, err, "токен одноразовый")

	_, err = s.ConfirmLink(context.Background(), token, 100)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestTelegramLink_GenerateRequiresUser(t *testing.T) {
	s, _, _, _ := newTelegramLinkFixture()
	_, err := s.GenerateLinkToken(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUserIDNotFoundInContext)
}

func TestTelegramLink_ChatMovesToNewAccount(t *testing.T) {
	s, users, _, _ := newTelegramLinkFixture()

	token, err := s.GenerateLinkToken(actorCtx(7, "nilufar@corp.tj"))
	require.NoError(t, err)
	_, err = s.ConfirmLink(context.Background(), token, 500)
	require.NoError(t, err)

	assert.False(t, users.get(8).TelegramChatID.Valid)
	assert.Equal(t, int64(500), users.get(7).TelegramChatID.Int64)
}

func TestTelegramLink_Unlink(t *testing.T) {
	s, users, _, _ := newTelegramLinkFixture()
	require.NoError(t, s.Unlink(actorCtx(8, "bakhtiyor@corp.tj")))
	assert.False(t, users.get(8).TelegramChatID.Valid)
}

func TestTelegramLink_HandleMessage(t *testing.T) {
	t.Run("start without code greets", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		s.HandleMessage(context.Background(), 1, "/start")
		assert.Equal(t, telegramWelcomeText, bot.last(1))
	})

	t.Run("start with code links account", func(t *testing.T) {
		s, users, _, bot := newTelegramLinkFixture()
		token, err := s.GenerateLinkToken(actorCtx(7, "nilufar@corp.tj"))
		require.NoError(t, err)

		s.HandleMessage(context.Background(), 42, "/start "+token)
		assert.True(t, strings.HasPrefix(bot.last(42), "✅"))
		assert.Equal(t, int64(42), users.get(7).TelegramChatID.Int64)
	})

	t.Run("bare code links account", func(t *testing.T) {
		s, users, _, bot := newTelegramLinkFixture()
		token, err := s.GenerateLinkToken(actorCtx(7, "nilufar@corp.tj"))
		require.NoError(t, err)

		s.HandleMessage(context.Background(), 43, "  "+token+"\n")
		assert.True(t, strings.HasPrefix(bot.last(43), "✅"))
		assert.Equal(t, int64(43), users.get(7).TelegramChatID.Int64)
	})

	t.Run("expired code", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		s.HandleMessage(context.Background(), 44, "/start 74b55710-3293-4b89-a7aa-a31f38282af9")
		assert.True(t, strings.HasPrefix(bot.last(44), "❌"))
	})

	t.Run("balance for linked chat", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		s.HandleMessage(context.Background(), 500, "/balance@leave_bot")
		reply := bot.last(500)
		assert.Contains(t, reply, "Бахтиёр Саидов")
		assert.Contains(t, reply, "в отпуске, выход 16.03.2026")
	})

	t.Run("balance formats fractional days", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		token, err := s.GenerateLinkToken(actorCtx(7, "nilufar@corp.tj"))
		require.NoError(t, err)
		_, err = s.ConfirmLink(context.Background(), token, 77)
		require.NoError(t, err)

		s.HandleMessage(context.Background(), 77, "/balance")
		assert.Contains(t, bot.last(77), "Остаток отпуска: 12.5 дн.")
		assert.Contains(t, bot.last(77), "Разрешений на выход: 2")
	})

	t.Run("balance for unknown chat", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		s.HandleMessage(context.Background(), 999, "/balance")
		assert.Contains(t, bot.last(999), "не привязан")
	})

	t.Run("unknown command shows help", func(t *testing.T) {
		s, _, _, bot := newTelegramLinkFixture()
		s.HandleMessage(context.Background(), 5, "привет")
		assert.Contains(t, bot.last(5), telegramHelpText)
	})
}
