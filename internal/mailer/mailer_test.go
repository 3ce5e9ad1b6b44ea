package mailer

import (
	"io"
	"log/slog"
	"testing"

	"segreta/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCompose_Verification(t *testing.T) {
	subject, htmlBody, textBody := Compose(models.Message{
		Email:   "a@x.com",
		Subject: "Your Verification Code - Segreta",
		Code:    "123456",
		Purpose: "verification",
	})

	assert.Equal(t, "Your Verification Code - Segreta", subject)
	assert.Contains(t, htmlBody, "<h1>123456</h1>")
	assert.Contains(t, textBody, "123456")
}

func TestCompose_PasswordReset(t *testing.T) {
	subject, htmlBody, textBody := Compose(models.Message{
		Email:   "a@x.com",
		Subject: "Reset Your Password - Segreta",
		Link:    "http://localhost:8080/reset-password?token=abc",
		Purpose: "password_reset",
	})

	assert.Equal(t, "Reset Your Password - Segreta", subject)
	assert.Contains(t, htmlBody, `href="http://localhost:8080/reset-password?token=abc"`)
	assert.Contains(t, textBody, "http://localhost:8080/reset-password?token=abc")
}

func TestSend_DevModeFallsBackToLog(t *testing.T) {
	m := &Mailer{
		DevMode: true,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	sent := m.Send("a@x.com", "subject", "<p>html</p>", "text")

	assert.False(t, sent)
}
