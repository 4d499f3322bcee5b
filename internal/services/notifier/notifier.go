// Package services рассылает письма об изменении тарифа.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/smtp"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// ErrMalformedEvent - тело сообщения не является событием подписки.
var ErrMalformedEvent = errors.New("malformed subscription event")

const dateLayout = "02.01.2006"

// NotifierService отправляет письма по событиям подписки.
type NotifierService struct {
	transport smtp.TransportInterface
	appURL    string
	log       *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(transport smtp.TransportInterface, appURL string, log *slog.Logger) *NotifierService {
	return &NotifierService{
		transport: transport,
		appURL:    strings.TrimRight(appURL, "/"),
		log:       log,
	}
}

// HandleEvent разбирает событие из очереди и отправляет письмо.
// События без адреса и неизвестных типов пропускаются.
func (s *NotifierService) HandleEvent(body []byte) error {
	const op = "services.notifier.HandleEvent"
	log := s.log.With(slog.String("op", op))

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedEvent, err)
	}
	if event.Email == "" {
		log.Warn("event without email skipped", slog.String("user_id", event.UserID))
		return nil
	}

	subject, text, ok := s.compose(event)
	if !ok {
		log.Warn("unknown event type skipped", slog.String("type", event.Type))
		return nil
	}
	if err := s.sendEmail(event.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("email sent", slog.String("type", event.Type), slog.String("user_id", event.UserID))
	return nil
}

func (s *NotifierService) compose(e models.SubscriptionEvent) (subject, text string, ok bool) {
	until := ""
	if e.EndDate != nil {
		until = fmt.Sprintf(" Подписка действует до %s.", e.EndDate.UTC().Format(dateLayout))
	}

	switch e.Type {
	case models.EventPremiumActivated:
		return "Премиум подключён",
			"Здравствуйте!\n\nПремиум-доступ к Weather Dashboard активирован." + until +
				"\n\nТеперь вам доступны почасовой прогноз на 7 дней, сравнение городов и все курсы валют.", true
	case models.EventPremiumRenewed:
		return "Подписка продлена",
			"Здравствуйте!\n\nОплата прошла успешно, премиум продлён." + until, true
	case models.EventPremiumRevoked:
		return "Премиум отключён",
			"Здравствуйте!\n\nПремиум-доступ отключён, аккаунт переведён на бесплатный тариф.\n\n" +
				"Оформить подписку снова можно здесь: " + s.appURL + "/pricing", true
	case models.EventPremiumExpired:
		return "Срок премиума истёк",
			"Здравствуйте!\n\nСрок действия премиум-доступа закончился, аккаунт переведён на бесплатный тариф.\n\n" +
				"Продлить доступ можно здесь: " + s.appURL + "/pricing", true
	default:
		return "", "", false
	}
}

func (s *NotifierService) sendEmail(to, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("failed to close smtp client", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}
