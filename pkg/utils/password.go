package utils

import (
	"fmt"

	apperrors "it-inventory/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt учитывает только первые 72 байта пароля.
const maxPasswordBytes = 72

// HashPassword возвращает bcrypt-хеш пароля для хранения в users.password.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperrors.NewInvalidInputError("пароль длиннее %d байт", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("не удалось хешировать пароль: %w", err)
	}
	return string(hash), nil
}

// PasswordMatches сверяет пароль с хешем. Повреждённый хеш считается несовпадением.
func PasswordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
