package models

import "time"

type User struct {
	ID        int64
	Email     string
	Username  string
	PassHash  []byte
	CreatedAt time.Time
}

type Secret struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      int64     `json:"-"`
	Author      string    `json:"author"`
}

type RefreshToken struct {
	TokenHash []byte
	UserID    int64
	ExpiresAt time.Time
}

type VerificationCode struct {
	ID        int64
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Verified  bool
}

// * IsExpired проверяет, истек ли срок действия кода
func (c *VerificationCode) IsExpired() bool {
	return c.ExpiresAt.Before(time.Now())
}

// * IsActive проверяет, активен ли код (не подтвержден и не истек)
func (c *VerificationCode) IsActive() bool {
	return !c.Verified && !c.IsExpired()
}

type PasswordResetToken struct {
	ID        int64
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// * IsExpired проверяет, истек ли срок действия токена
func (t *PasswordResetToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

// * IsActive проверяет, активен ли токен (не использован и не истек)
func (t *PasswordResetToken) IsActive() bool {
	return !t.Used && !t.IsExpired()
}

type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Link    string `json:"link,omitempty"`
	Code    string `json:"code,omitempty"`
	Purpose string `json:"purpose"`
}
