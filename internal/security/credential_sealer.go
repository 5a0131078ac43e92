package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealerKeySize   = 32
	sealerNonceSize = 24
	sealerInfo      = "hospiblog blog credential v1"
)

// ErrUnsealFailed は暗号文の復号に失敗した場合に返される。
var ErrUnsealFailed = errors.New("failed to unseal credential")

// CredentialSealer は病院のブログパスワードを保存用に暗号化する。
// 暗号文はnonceとsecretboxの出力を連結してBase64エンコードしたもの。
type CredentialSealer struct {
	key [sealerKeySize]byte
}

// NewCredentialSealer はsecretからHKDF-SHA256で鍵を導出してCredentialSealerを生成する。
func NewCredentialSealer(secret string) (*CredentialSealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("credential secret must not be empty")
	}

	s := &CredentialSealer{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealerInfo))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive credential key: %w", err)
	}
	return s, nil
}

// Seal は平文を暗号化する。空文字列は空文字列のまま返す。
func (s *CredentialSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [sealerNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open はSealで暗号化された値を復号する。
func (s *CredentialSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < sealerNonceSize+secretbox.Overhead {
		return "", ErrUnsealFailed
	}

	var nonce [sealerNonceSize]byte
	copy(nonce[:], raw[:sealerNonceSize])

	plain, ok := secretbox.Open(nil, raw[sealerNonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}
