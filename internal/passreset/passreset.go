package passreset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "segreta/internal/lib/logger"
	"segreta/internal/models"
	"segreta/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrRateLimited      = errors.New("reset was requested recently")
	ErrInvalidOrExpired = errors.New("invalid or expired reset token")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
)

const minPasswordLen = 6

type TokenStore interface {
	SaveResetToken(ctx context.Context, rec models.PasswordResetToken) error
	ResetToken(ctx context.Context, token string) (models.PasswordResetToken, error)
	LatestResetToken(ctx context.Context, email string) (models.PasswordResetToken, error)
	PurgeDeadResetTokens(ctx context.Context, email string) error
	ConsumeResetToken(ctx context.Context, token, email string, passHash []byte) error
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Service struct {
	log             *slog.Logger
	tokens          TokenStore
	users           UserProvider
	pub             Publisher
	tokenTTL        time.Duration
	requestInterval time.Duration
	baseURL         string
}

func New(
	log *slog.Logger,
	tokens TokenStore,
	users UserProvider,
	pub Publisher,
	tokenTTL, requestInterval time.Duration,
	baseURL string,
) *Service {
	return &Service{
		log:             log,
		tokens:          tokens,
		users:           users,
		pub:             pub,
		tokenTTL:        tokenTTL,
		requestInterval: requestInterval,
		baseURL:         baseURL,
	}
}

// * RequestReset выдает токен сброса пароля и отправляет ссылку на почту.
// Для несуществующего email отвечаем так же, как для существующего, ничего
// не создавая: нельзя дать понять, есть ли аккаунт.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	const op = "passreset.RequestReset"

	log := s.log.With(slog.String("op", op))

	latest, err := s.tokens.LatestResetToken(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrResetTokenNotFound) {
		log.Error("failed to load latest reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err == nil && time.Since(latest.CreatedAt) < s.requestInterval {
		log.Info("reset request rate limited")
		return ErrRateLimited
	}

	if _, err := s.users.User(ctx, email); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown email")
			return nil
		}

		log.Error("failed to load user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.PurgeDeadResetTokens(ctx, email); err != nil {
		log.Error("failed to purge dead reset tokens", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := generateToken()
	if err != nil {
		log.Error("failed to generate reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	rec := models.PasswordResetToken{
		Email:     email,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	if err := s.tokens.SaveResetToken(ctx, rec); err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)

	msg := models.Message{
		Email:   email,
		Subject: "Reset Your Password - Segreta",
		Link:    resetLink,
		Purpose: "password_reset",
	}

	if err := s.pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish reset link", sl.Err(err))
	}

	log.Info("reset token issued")

	return nil
}

// * CheckToken возвращает email владельца действующего токена
func (s *Service) CheckToken(ctx context.Context, token string) (string, error) {
	const op = "passreset.CheckToken"

	rec, err := s.tokens.ResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrResetTokenNotFound) {
			return "", ErrInvalidOrExpired
		}

		s.log.Error("failed to load reset token", slog.String("op", op), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !rec.IsActive() {
		return "", ErrInvalidOrExpired
	}

	return rec.Email, nil
}

// * ConsumeAndReset меняет пароль и гасит токен одной транзакцией хранилища.
// Если обновление пароля не прошло, токен остается неиспользованным.
func (s *Service) ConsumeAndReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	const op = "passreset.ConsumeAndReset"

	log := s.log.With(slog.String("op", op))

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	email, err := s.CheckToken(ctx, token)
	if err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.ConsumeResetToken(ctx, token, email, passHash); err != nil {
		if errors.Is(err, storage.ErrAlreadyConsumed) {
			return ErrInvalidOrExpired
		}

		log.Error("failed to consume reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset completed")

	return nil
}

// * generateToken возвращает 32 байта энтропии в URL-safe кодировке
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
