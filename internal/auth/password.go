package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost はパスワードハッシュのコスト係数。
const BcryptCost = 10

// MinPasswordLength は病院アカウントが設定できるパスワードの最小文字数。
const MinPasswordLength = 8

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword はパスワードがハッシュと一致するかを返す。
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
