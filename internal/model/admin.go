package model

import "time"

// Admin は病院アカウントを管理する運営者アカウントを表す。
// アプリケーションからは作成せず、create-adminサブコマンドで投入する。
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
