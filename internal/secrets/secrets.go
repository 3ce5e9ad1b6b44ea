package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "segreta/internal/lib/logger"
	"segreta/internal/models"
	"segreta/internal/storage"
)

var (
	ErrNotVerified  = errors.New("email not verified")
	ErrUserNotFound = errors.New("user not found")
)

type SecretStore interface {
	SaveSecret(ctx context.Context, s models.Secret) (models.Secret, error)
	Secrets(ctx context.Context) ([]models.Secret, error)
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type Verifier interface {
	IsVerified(ctx context.Context, email string) (bool, error)
}

type Service struct {
	log      *slog.Logger
	store    SecretStore
	users    UserProvider
	verifier Verifier
}

func New(log *slog.Logger, store SecretStore, users UserProvider, verifier Verifier) *Service {
	return &Service{
		log:      log,
		store:    store,
		users:    users,
		verifier: verifier,
	}
}

// * List возвращает ленту секретов, новые первыми. У анонимных записей
// автор скрыт.
func (s *Service) List(ctx context.Context) ([]models.Secret, error) {
	const op = "secrets.List"

	list, err := s.store.Secrets(ctx)
	if err != nil {
		s.log.Error("failed to load secrets", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range list {
		if list[i].IsAnonymous {
			list[i].Author = "Anonymous"
		}
	}

	return list, nil
}

// * Create публикует секрет от имени пользователя с подтвержденной почтой
func (s *Service) Create(ctx context.Context, userID int64, title, content string, isAnonymous bool) (models.Secret, error) {
	const op = "secrets.Create"

	log := s.log.With(slog.String("op", op))

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Secret{}, ErrUserNotFound
		}

		log.Error("failed to load user", sl.Err(err))
		return models.Secret{}, fmt.Errorf("%s: %w", op, err)
	}

	verified, err := s.verifier.IsVerified(ctx, user.Email)
	if err != nil {
		log.Error("failed to check verification", sl.Err(err))
		return models.Secret{}, fmt.Errorf("%s: %w", op, err)
	}
	if !verified {
		return models.Secret{}, ErrNotVerified
	}

	secret := models.Secret{
		Title:       title,
		Content:     content,
		IsAnonymous: isAnonymous,
		UserID:      userID,
		Author:      user.Username,
	}

	saved, err := s.store.SaveSecret(ctx, secret)
	if err != nil {
		log.Error("failed to save secret", sl.Err(err))
		return models.Secret{}, fmt.Errorf("%s: %w", op, err)
	}

	saved.Author = user.Username
	if saved.IsAnonymous {
		saved.Author = "Anonymous"
	}

	log.Info("secret created", slog.Int64("id", saved.ID))

	return saved, nil
}
