// Package password хэширует пароли учётных записей bcrypt-ом и проверяет их.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength — минимальная длина пароля.
	MinLength = 8
	// MaxLength — предел bcrypt, более длинные пароли не хэшируются.
	MaxLength = 72
)

var (
	// ErrMismatch возвращается, если пароль не совпадает с хэшем.
	ErrMismatch = errors.New("password does not match")
	// ErrTooLong возвращается для паролей длиннее MaxLength байт.
	ErrTooLong = errors.New("password is too long")
)

// GetHash возвращает bcrypt-хэш пароля для хранения в таблице users.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает сохранённый хэш с введённым паролем.
// Несовпадение даёт ErrMismatch, повреждённый хэш даёт исходную ошибку bcrypt.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
