package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// SessionCookieName はセッションCookieの名前。
const SessionCookieName = "session_id"

// MinSecretLength はCookie署名鍵の最小バイト長。
const MinSecretLength = 32

// CookieSigner はセッションIDにHMAC-SHA256署名を付けてCookie値にする。
// Cookie値の形式は "<セッションID>.<base64url(HMAC)>"。
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner はCookieSignerを生成する。
func NewCookieSigner(secret []byte) *CookieSigner {
	return &CookieSigner{secret: secret}
}

// Sign はセッションIDを署名付きのCookie値に変換する。
func (s *CookieSigner) Sign(sessionID string) string {
	return sessionID + "." + base64.RawURLEncoding.EncodeToString(s.mac(sessionID))
}

// Verify はCookie値の署名を検証し、セッションIDを返す。
// 形式不正や署名不一致の場合はfalseを返す。
func (s *CookieSigner) Verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	sessionID, encoded := value[:i], value[i+1:]

	sig, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(sig, s.mac(sessionID)) {
		return "", false
	}
	return sessionID, true
}

func (s *CookieSigner) mac(sessionID string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(sessionID))
	return h.Sum(nil)
}

// GenerateSecret はプロセス内でのみ有効な一時的な署名鍵を生成する。
// 再起動で全セッションが無効になるため、本番環境では使わないこと。
func GenerateSecret() ([]byte, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return b, nil
}
