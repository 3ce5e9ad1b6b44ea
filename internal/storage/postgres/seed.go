package postgres

import (
	"context"
	"errors"
	"fmt"

	"segreta/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type demoUser struct {
	username string
	email    string
	password string
}

type demoSecret struct {
	title       string
	content     string
	isAnonymous bool
	userIdx     int
}

var demoUsers = []demoUser{
	{"CosmicDreamer", "demo@segreta.com", "demo123"},
	{"StarWhisperer", "star@segreta.com", "demo123"},
	{"MoonlightPoet", "moon@segreta.com", "demo123"},
}

var demoSecrets = []demoSecret{
	{"A Cosmic Love Letter", "To the stars above, I whisper my deepest feelings. In this vast universe, love finds a way to connect two souls across infinite space. Every constellation tells our story.", true, 0},
	{"Dreams of Tomorrow", "Sometimes I dream of a world where kindness is the universal language, where every heart beats in harmony with the cosmos. What if we could make this dream reality?", false, 0},
	{"Midnight Confessions", "At 3 AM, when the world sleeps, I find myself talking to the moon about hopes, fears, and the beautiful mystery of existence. The silence holds all my secrets.", true, 1},
	{"Finding Light in Darkness", "After months of feeling lost, I finally found my spark again. It was in the smallest things - morning coffee, a friend's laugh, the way sunlight dances through leaves.", false, 1},
	{"Secret Garden of the Heart", "I have a secret garden in my heart where I keep all the beautiful moments. Every sunset, every kind word, every gentle touch grows there like flowers in eternal spring.", true, 2},
	{"The Courage to Be Vulnerable", "Today I learned that vulnerability isn't weakness - it's the birthplace of love, belonging, and joy. Sharing our authentic selves is the most beautiful gift we can give.", false, 2},
	{"Whispers to the Universe", "Dear Universe, thank you for every broken road that led me here, every storm that made me stronger, every star that guided me home to myself.", true, 0},
	{"Love in the Time of Digital", "In a world of screens and notifications, I still believe in handwritten letters, long conversations under stars, and love that transcends pixels and WiFi.", false, 1},
}

// * SeedDemo наполняет пустую базу демо-данными для презентации.
// Повторный запуск ничего не делает.
func (r *PostgresRepo) SeedDemo(ctx context.Context) error {
	const op = "storage.postgres.SeedDemo"

	count, err := r.CountSecrets(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return nil
	}

	userIDs := make([]int64, 0, len(demoUsers))

	for _, du := range demoUsers {
		passHash, err := bcrypt.GenerateFromPassword([]byte(du.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		id, err := r.SaveUser(ctx, du.email, du.username, passHash)
		if err != nil {
			if errors.Is(err, storage.ErrUserExists) {
				existing, err := r.User(ctx, du.email)
				if err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
				userIDs = append(userIDs, existing.ID)

				continue
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		userIDs = append(userIDs, id)
	}

	for _, ds := range demoSecrets {
		query := `
			INSERT INTO secrets (title, content, is_anonymous, user_id)
			VALUES ($1, $2, $3, $4)
		`

		_, err := r.pool.Exec(ctx, query, ds.title, ds.content, ds.isAnonymous, userIDs[ds.userIdx])
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
