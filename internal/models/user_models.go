package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
)

const minPasswordLen = 4

// User представляет пользователя системы. Идентификаторы назначаются
// монотонно на уровне хранилища, username уникален.
type User struct {
	UserID           int       `json:"user_id"`
	Username         string    `json:"username"`
	Salt             string    `json:"salt"`
	HashedPassword   string    `json:"hashed_password"`
	RegistrationDate time.Time `json:"registration_date"`
}

// NewUser валидирует имя и пароль и создает пользователя с новой солью.
func NewUser(userID int, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: имя пользователя не может быть пустым", custom_err.ErrInvalidInput)
	}
	if len(strings.TrimSpace(password)) < minPasswordLen {
		return nil, fmt.Errorf("%w: пароль должен содержать минимум %d символа", custom_err.ErrInvalidInput, minPasswordLen)
	}

	u := &User{
		UserID:           userID,
		Username:         username,
		RegistrationDate: time.Now().UTC(),
	}
	if err := u.setPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyPassword сравнивает пароль с сохраненным хэшем.
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password+u.Salt))
	return err == nil
}

// ChangePassword генерирует новую соль и перезаписывает хэш.
func (u *User) ChangePassword(newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLen {
		return fmt.Errorf("%w: пароль должен содержать минимум %d символа", custom_err.ErrInvalidInput, minPasswordLen)
	}
	return u.setPassword(newPassword)
}

func (u *User) setPassword(password string) error {
	salt, err := generateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Salt = salt
	u.HashedPassword = string(hashed)
	return nil
}

func generateSalt() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Session хранит текущего вошедшего пользователя. Слот один на процесс:
// в файле сессии лежит подписанный токен, а не голый user_id.
type Session struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// SessionClaims кастомные claims для токена сессии.
type SessionClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
