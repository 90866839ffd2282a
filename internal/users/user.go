package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username is already in use")
	ErrBadCredentials = errors.New("invalid username or password")
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsCoach      bool      `json:"is_coach"`
	CreatedAt    time.Time `json:"created_at"`
}
