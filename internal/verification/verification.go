package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	sl "segreta/internal/lib/logger"
	"segreta/internal/models"
	"segreta/internal/storage"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrRateLimited      = errors.New("code was sent recently")
	ErrInvalidOrExpired = errors.New("invalid or expired code")
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Policy задает режим проверки почты. При включенном Bypass все адреса
// считаются подтвержденными, коды не выдаются и не проверяются.
type Policy struct {
	Bypass bool
}

type CodeStore interface {
	SaveCode(ctx context.Context, rec models.VerificationCode) error
	LatestCode(ctx context.Context, email string) (models.VerificationCode, error)
	DeleteUnverifiedCodes(ctx context.Context, email string) error
	MarkCodeVerified(ctx context.Context, id int64) (bool, error)
	EmailVerified(ctx context.Context, email string) (bool, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Service struct {
	log            *slog.Logger
	codes          CodeStore
	pub            Publisher
	policy         Policy
	codeTTL        time.Duration
	resendInterval time.Duration
}

func New(
	log *slog.Logger,
	codes CodeStore,
	pub Publisher,
	policy Policy,
	codeTTL, resendInterval time.Duration,
) *Service {
	return &Service{
		log:            log,
		codes:          codes,
		pub:            pub,
		policy:         policy,
		codeTTL:        codeTTL,
		resendInterval: resendInterval,
	}
}

// * Bypassed сообщает вызывающему слою, что проверка почты отключена
func (s *Service) Bypassed() bool {
	return s.policy.Bypass
}

// * IssueCode выдает новый 6-значный код для email. Старые неподтвержденные
// коды удаляются, так что активным остается ровно один. Письмо уходит через
// брокер fire-and-forget: ошибка отправки логируется, код остается валидным.
func (s *Service) IssueCode(ctx context.Context, email string) error {
	const op = "verification.IssueCode"

	log := s.log.With(slog.String("op", op))

	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}

	if err := s.codes.DeleteUnverifiedCodes(ctx, email); err != nil {
		log.Error("failed to purge stale codes", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := generateCode()
	if err != nil {
		log.Error("failed to generate code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	rec := models.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL),
	}

	if err := s.codes.SaveCode(ctx, rec); err != nil {
		log.Error("failed to save code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   email,
		Subject: "Your Verification Code - Segreta",
		Code:    code,
		Purpose: "verification",
	}

	if err := s.pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification code", sl.Err(err))
	}

	log.Info("verification code issued")

	return nil
}

// * ResendCode повторно выдает код, не чаще одного раза в resendInterval
func (s *Service) ResendCode(ctx context.Context, email string) error {
	const op = "verification.ResendCode"

	log := s.log.With(slog.String("op", op))

	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}

	latest, err := s.codes.LatestCode(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrCodeNotFound) {
		log.Error("failed to load latest code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err == nil && time.Since(latest.CreatedAt) < s.resendInterval {
		log.Info("resend rate limited")
		return ErrRateLimited
	}

	return s.IssueCode(ctx, email)
}

// * Validate сверяет код с последним выданным для email. Сверка идет только
// с самой свежей записью: корректный, но устаревший после перевыпуска код
// не проходит. Флаг verified выставляется атомарно в хранилище.
func (s *Service) Validate(ctx context.Context, email, submittedCode string) error {
	const op = "verification.Validate"

	log := s.log.With(slog.String("op", op))

	latest, err := s.codes.LatestCode(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			return ErrInvalidOrExpired
		}

		log.Error("failed to load latest code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !latest.IsActive() || latest.Code != submittedCode {
		return ErrInvalidOrExpired
	}

	ok, err := s.codes.MarkCodeVerified(ctx, latest.ID)
	if err != nil {
		log.Error("failed to mark code verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return ErrInvalidOrExpired
	}

	log.Info("email verified")

	return nil
}

// * IsVerified проверяет, подтвержден ли email. В режиме Bypass всегда true.
func (s *Service) IsVerified(ctx context.Context, email string) (bool, error) {
	const op = "verification.IsVerified"

	if s.policy.Bypass {
		return true, nil
	}
	if email == "" {
		return false, nil
	}

	verified, err := s.codes.EmailVerified(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return verified, nil
}

// * generateCode возвращает равномерно случайный код из [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
