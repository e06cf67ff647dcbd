package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/telegram"
	"leave-system/pkg/utils"
)

const (
	telegramLinkTokenTTL    = 15 * time.Minute
	telegramLinkTokenPrefix = "telegram-link-token:"
)

const (
	telegramHelpText = "Команды бота:\n" +
		"/start <код> - привязать аккаунт\n" +
		"/balance - остаток отпуска и разрешений на выход\n" +
		"/help - эта справка"
	telegramWelcomeText = "👋 Добро пожаловать в систему учёта отсутствий!\n\n" +
		"Для привязки аккаунта откройте профиль в веб-приложении, нажмите \"Связать Telegram\" " +
		"и отправьте мне полученный код."
)

type TelegramLinkServiceInterface interface {
	GenerateLinkToken(ctx context.Context) (string, error)
	ConfirmLink(ctx context.Context, token string, chatID int64) (*entities.User, error)
	Unlink(ctx context.Context) error
	// HandleMessage разбирает входящее сообщение бота и отправляет ответ в чат.
	HandleMessage(ctx context.Context, chatID int64, text string)
}

type TelegramLinkService struct {
	txManager repositories.TxManagerInterface
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	bot       telegram.ServiceInterface
	logger    *zap.Logger
}

func NewTelegramLinkService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	bot telegram.ServiceInterface,
	logger *zap.Logger,
) *TelegramLinkService {
	return &TelegramLinkService{
		txManager: txManager,
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		bot:       bot,
		logger:    logger,
	}
}

func (s *TelegramLinkService) GenerateLinkToken(ctx context.Context) (string, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return "", err
	}

	token := uuid.New().String()
	if err := s.cacheRepo.Set(ctx, telegramLinkTokenPrefix+token, userID, telegramLinkTokenTTL); err != nil {
		s.logger.Error("GenerateLinkToken: не удалось сохранить токен в Redis", zap.Uint64("userID", userID), zap.Error(err))
		return "", apperrors.ErrInternalServer
	}

	s.logger.Info("Сгенерирован токен для привязки Telegram", zap.Uint64("userID", userID))
	return token, nil
}

func (s *TelegramLinkService) ConfirmLink(ctx context.Context, token string, chatID int64) (*entities.User, error) {
	key := telegramLinkTokenPrefix + token
	val, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Warn("ConfirmLink: неверный или просроченный токен", zap.Int64("chatID", chatID))
			return nil, apperrors.NewHttpError(http.StatusBadRequest, "Неверный код или истекло время его действия", err, nil)
		}
		return nil, fmt.Errorf("ошибка чтения токена привязки: %w", err)
	}

	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		s.logger.Error("ConfirmLink: повреждённое значение токена", zap.String("value", val), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	var linked *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// один чат - один аккаунт
		previous, err := s.userRepo.FindByTelegramChatID(ctx, tx, chatID)
		switch {
		case err == nil && previous.ID != userID:
			if err := s.userRepo.SetTelegramChatID(ctx, tx, previous.ID, nil); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		if err := s.userRepo.SetTelegramChatID(ctx, tx, userID, &chatID); err != nil {
			return err
		}
		linked, err = s.userRepo.FindByID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.cacheRepo.Del(ctx, key)
	s.logger.Info("Telegram-аккаунт привязан", zap.Uint64("userID", userID), zap.Int64("chatID", chatID))
	return linked, nil
}

func (s *TelegramLinkService) Unlink(ctx context.Context) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetTelegramChatID(ctx, nil, userID, nil); err != nil {
		return err
	}
	s.logger.Info("Telegram-аккаунт отвязан", zap.Uint64("userID", userID))
	return nil
}

func (s *TelegramLinkService) HandleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	command, arg, _ := strings.Cut(text, " ")
	// в группах Telegram добавляет имя бота: /balance@leave_bot
	command, _, _ = strings.Cut(command, "@")

	var reply string
	switch {
	case command == "/start" && strings.TrimSpace(arg) == "":
		reply = telegramWelcomeText
	case command == "/start":
		reply = s.linkReply(ctx, strings.TrimSpace(arg), chatID)
	case command == "/balance":
		reply = s.balanceReply(ctx, chatID)
	case command == "/help":
		reply = telegramHelpText
	case isLinkToken(text):
		reply = s.linkReply(ctx, text, chatID)
	default:
		reply = "Неизвестная команда.\n\n" + telegramHelpText
	}

	if err := s.bot.SendMessage(ctx, chatID, reply); err != nil {
		s.logger.Error("Не удалось ответить в Telegram", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (s *TelegramLinkService) linkReply(ctx context.Context, token string, chatID int64) string {
	user, err := s.ConfirmLink(ctx, token, chatID)
	if err != nil {
		return "❌ Неверный код или истекло время его действия. Сгенерируйте новый код в профиле."
	}
	return fmt.Sprintf("✅ Ваш аккаунт успешно привязан, %s!\n\n%s", user.FirstName, telegramHelpText)
}

func (s *TelegramLinkService) balanceReply(ctx context.Context, chatID int64) string {
	user, err := s.userRepo.FindByTelegramChatID(ctx, nil, chatID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Ошибка поиска пользователя по chat_id", zap.Int64("chatID", chatID), zap.Error(err))
		}
		return "Аккаунт не привязан. Отправьте код привязки из профиля."
	}

	status := "на работе"
	if user.OnLeave {
		status = "в отпуске"
		if user.ReturnDate != nil {
			status += ", выход " + user.ReturnDate.Format("02.01.2006")
		}
	}
	return fmt.Sprintf("%s %s\nОстаток отпуска: %s дн.\nРазрешений на выход: %d\nСтатус: %s",
		user.FirstName, user.LastName,
		strconv.FormatFloat(user.LeaveDays, 'f', -1, 64),
		user.ExternalActivitiesLimit, status)
}

func isLinkToken(text string) bool {
	_, err := uuid.Parse(text)
	return err == nil && len(text) == 36
}
