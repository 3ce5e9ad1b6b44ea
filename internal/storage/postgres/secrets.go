package postgres

import (
	"context"
	"fmt"

	"segreta/internal/models"
)

func (r *PostgresRepo) SaveSecret(ctx context.Context, s models.Secret) (models.Secret, error) {
	const op = "storage.postgres.SaveSecret"

	query := `
		INSERT INTO secrets (title, content, is_anonymous, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`

	err := r.pool.QueryRow(ctx, query, s.Title, s.Content, s.IsAnonymous, s.UserID).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return models.Secret{}, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// * Secrets возвращает все секреты, новые первыми
func (r *PostgresRepo) Secrets(ctx context.Context) ([]models.Secret, error) {
	const op = "storage.postgres.Secrets"

	query := `
		SELECT s.id, s.title, s.content, s.is_anonymous, s.created_at, s.user_id, u.username
		FROM secrets s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var secrets []models.Secret

	for rows.Next() {
		var s models.Secret

		err := rows.Scan(&s.ID, &s.Title, &s.Content, &s.IsAnonymous, &s.CreatedAt, &s.UserID, &s.Author)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		secrets = append(secrets, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return secrets, nil
}

func (r *PostgresRepo) CountSecrets(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM secrets`).Scan(&n)

	return n, err
}
