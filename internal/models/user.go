package models

import (
	"errors"
	"time"
)

var (
	// ErrNotFound возвращается хранилищем, когда запись отсутствует
	// или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrConflict - нарушение уникальности (username, slug).
	ErrConflict = errors.New("already exists")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Created      time.Time `json:"created"`
}

type Session struct {
	Token   string
	UserID  int64
	Expires time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
