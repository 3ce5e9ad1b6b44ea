package mailer

import (
	"fmt"
	"log/slog"

	sl "segreta/internal/lib/logger"
	"segreta/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	DevMode  bool

	Log *slog.Logger
}

// * Send отправляет письмо через SMTP. Возвращает true, если письмо ушло,
// и false, если сработал дев-режим или отправка не удалась и письмо попало
// в лог. Ошибку наружу не отдаем: недоставленное письмо не должно ломать
// операцию, которая его породила.
func (m *Mailer) Send(to, subject, htmlBody, textBody string) bool {
	if m.DevMode {
		m.logFallback("dev mode", to, subject, textBody)
		return false
	}

	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	if textBody != "" {
		msg.SetBody("text/plain", textBody)
		msg.AddAlternative("text/html", htmlBody)
	} else {
		msg.SetBody("text/html", htmlBody)
	}

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		m.Log.Error("failed to send email", sl.Err(err))
		m.logFallback("send failed", to, subject, textBody)
		return false
	}

	m.Log.Info("email sent", slog.String("to", to), slog.String("subject", subject))

	return true
}

func (m *Mailer) logFallback(reason, to, subject, body string) {
	m.Log.Info("email written to log",
		slog.String("reason", reason),
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
}

// * Compose собирает тему и тело письма по назначению сообщения
func Compose(msg models.Message) (subject, htmlBody, textBody string) {
	switch msg.Purpose {
	case "password_reset":
		subject = msg.Subject
		htmlBody = fmt.Sprintf(
			`<p>Hello!</p><p>You requested to reset your password for your Segreta account.</p><p><a href="%s">Reset My Password</a></p><p>This link will expire in 1 hour. If you didn't request this reset, please ignore this email.</p>`,
			msg.Link,
		)
		textBody = fmt.Sprintf(
			"Hello!\n\nYou requested to reset your password for your Segreta account.\n\nPlease visit this link to reset your password:\n%s\n\nThis link will expire in 1 hour. If you didn't request this reset, please ignore this email.",
			msg.Link,
		)
	default:
		subject = msg.Subject
		htmlBody = fmt.Sprintf(
			`<p>Hello!</p><p>Your verification code is:</p><h1>%s</h1><p>Enter this code on the site to verify your email.</p>`,
			msg.Code,
		)
		textBody = fmt.Sprintf(
			"Hello!\n\nYour verification code is: %s\n\nEnter this on the site to verify your email.",
			msg.Code,
		)
	}

	return subject, htmlBody, textBody
}
