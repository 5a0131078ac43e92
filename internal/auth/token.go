package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/hospiblog/internal/model"
)

// ErrInvalidToken はセッショントークンが無効な場合に返される。
// 署名不正、期限切れ、形式不正、種別不一致を区別しない。
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims はセッショントークンに格納するクレーム。
// 病院セッションはhospital_id、管理者セッションはusernameとroleを持つ。
type SessionClaims struct {
	ID         string     `json:"id"`
	HospitalID string     `json:"hospital_id,omitempty"`
	Username   string     `json:"username,omitempty"`
	AdminRole  string     `json:"role,omitempty"`
	Type       model.Role `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec はHS256署名付きセッショントークンのエンコード・デコードを行う。
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。secretはSESSION_SECRETを渡す。
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Encode はidentityをttl後に失効するトークンに変換する。
func (c *TokenCodec) Encode(identity model.Identity, ttl time.Duration) (string, error) {
	if identity.Subject == "" || identity.Role == "" {
		return "", fmt.Errorf("identity must have subject and role")
	}

	now := c.now()
	claims := SessionClaims{
		ID:   identity.Subject,
		Type: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	switch identity.Role {
	case model.RoleHospital:
		claims.HospitalID = identity.Login
	case model.RoleAdmin:
		claims.Username = identity.Login
		claims.AdminRole = identity.AdminRole
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証し、expectedの種別であればIdentityを返す。
// 検証に失敗した場合はpanicせずErrInvalidTokenを返す。
func (c *TokenCodec) Decode(tokenString string, expected model.Role) (*model.Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.Type != expected || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	identity := &model.Identity{
		Subject: claims.ID,
		Role:    claims.Type,
	}
	switch claims.Type {
	case model.RoleHospital:
		identity.Login = claims.HospitalID
	case model.RoleAdmin:
		identity.Login = claims.Username
		identity.AdminRole = claims.AdminRole
	}
	return identity, nil
}
