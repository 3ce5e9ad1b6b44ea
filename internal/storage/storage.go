package storage

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrCodeNotFound         = errors.New("verification code not found")
	ErrResetTokenNotFound   = errors.New("reset token not found")
	ErrAlreadyConsumed      = errors.New("record already consumed")
)
