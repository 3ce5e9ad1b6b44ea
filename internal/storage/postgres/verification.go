package postgres

import (
	"context"
	"errors"
	"fmt"

	"segreta/internal/models"
	"segreta/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveCode(ctx context.Context, rec models.VerificationCode) error {
	const op = "storage.postgres.SaveCode"

	query := `
		INSERT INTO verification_codes (email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, rec.Email, rec.Code, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * LatestCode возвращает последний созданный код для email
func (r *PostgresRepo) LatestCode(ctx context.Context, email string) (models.VerificationCode, error) {
	query := `
		SELECT id, email, code, created_at, expires_at, verified
		FROM verification_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`

	row := r.pool.QueryRow(ctx, query, email)

	var c models.VerificationCode
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.Code,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.Verified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.VerificationCode{}, storage.ErrCodeNotFound
	}

	return c, err
}

func (r *PostgresRepo) DeleteUnverifiedCodes(ctx context.Context, email string) error {
	query := `DELETE FROM verification_codes WHERE email = $1 AND verified = FALSE`

	_, err := r.pool.Exec(ctx, query, email)

	return err
}

// * MarkCodeVerified помечает код использованным. Условие verified = FALSE
// делает операцию атомарной: из двух конкурентных запросов выигрывает один.
func (r *PostgresRepo) MarkCodeVerified(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE verification_codes SET verified = TRUE WHERE id = $1 AND verified = FALSE`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) EmailVerified(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM verification_codes WHERE email = $1 AND verified = TRUE)`

	var verified bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&verified)

	return verified, err
}
