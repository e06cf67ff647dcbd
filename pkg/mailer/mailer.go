package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"leave-system/pkg/config"
)

// Email - готовое к отправке письмо.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type smtpSender struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// New возвращает SMTP-отправитель или заглушку, пишущую письма в лог, если SMTP не настроен.
func New(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	if cfg.Host == "" {
		logger.Warn("SMTP не настроен, письма будут только логироваться")
		return NewLogSender(logger), nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать SMTP-клиент: %w", err)
	}
	return &smtpSender{client: client, from: cfg.From, logger: logger}, nil
}

func (s *smtpSender) Send(ctx context.Context, email Email) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("неверный адрес отправителя: %w", err)
	}
	if err := m.To(email.To); err != nil {
		return fmt.Errorf("неверный адрес получателя %s: %w", email.To, err)
	}
	m.Subject(email.Subject)
	m.SetBodyString(mail.TypeTextPlain, email.TextBody)
	if email.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}
	s.logger.Debug("Письмо отправлено", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}

type logSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(_ context.Context, email Email) error {
	s.logger.Info("ИМИТАЦИЯ ОТПРАВКИ ПИСЬМА",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.TextBody),
	)
	return nil
}
