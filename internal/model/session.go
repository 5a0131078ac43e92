package model

// Role はセッションの種別を表す。
type Role string

const (
	// RoleHospital は病院アカウントのセッション。
	RoleHospital Role = "hospital"
	// RoleAdmin は管理者アカウントのセッション。
	RoleAdmin Role = "admin"
)

// Identity は認証ゲートを通過したリクエストの主体を表す。
// ハンドラーはCookieを直接読まず、コンテキストからこれを受け取る。
type Identity struct {
	Subject   string // hospitals.id または admins.id
	Login     string // hospital_id（ログインハンドル）または admin username
	Role      Role
	AdminRole string // 管理者の場合のみ
}
