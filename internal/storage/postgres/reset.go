package postgres

import (
	"context"
	"errors"
	"fmt"

	"segreta/internal/models"
	"segreta/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveResetToken(ctx context.Context, rec models.PasswordResetToken) error {
	const op = "storage.postgres.SaveResetToken"

	query := `
		INSERT INTO password_resets (email, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, rec.Email, rec.Token, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) ResetToken(ctx context.Context, token string) (models.PasswordResetToken, error) {
	query := `
		SELECT id, email, token, created_at, expires_at, used
		FROM password_resets
		WHERE token = $1;
	`

	row := r.pool.QueryRow(ctx, query, token)

	var t models.PasswordResetToken
	err := row.Scan(
		&t.ID,
		&t.Email,
		&t.Token,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.Used,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PasswordResetToken{}, storage.ErrResetTokenNotFound
	}

	return t, err
}

// * LatestResetToken возвращает последний запрошенный токен для email
func (r *PostgresRepo) LatestResetToken(ctx context.Context, email string) (models.PasswordResetToken, error) {
	query := `
		SELECT id, email, token, created_at, expires_at, used
		FROM password_resets
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`

	row := r.pool.QueryRow(ctx, query, email)

	var t models.PasswordResetToken
	err := row.Scan(
		&t.ID,
		&t.Email,
		&t.Token,
		&t.CreatedAt,
		&t.ExpiresAt,
		&t.Used,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PasswordResetToken{}, storage.ErrResetTokenNotFound
	}

	return t, err
}

// * PurgeDeadResetTokens удаляет использованные и истекшие токены для email.
// Действующие токены не трогаем: выданный токен живет до expires_at или до
// использования.
func (r *PostgresRepo) PurgeDeadResetTokens(ctx context.Context, email string) error {
	query := `DELETE FROM password_resets WHERE email = $1 AND (used = TRUE OR expires_at <= NOW())`

	_, err := r.pool.Exec(ctx, query, email)

	return err
}

// * ConsumeResetToken помечает токен использованным и обновляет пароль
// пользователя в одной транзакции. Условие used = FALSE гарантирует
// одноразовость: повторное использование не находит строку и откатывается.
func (r *PostgresRepo) ConsumeResetToken(ctx context.Context, token, email string, passHash []byte) error {
	const op = "storage.postgres.ConsumeResetToken"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE password_resets SET used = TRUE WHERE token = $1 AND used = FALSE AND expires_at > NOW()`,
		token,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAlreadyConsumed
	}

	tag, err = tx.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE email = $2`,
		string(passHash), email,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
