package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedToken = errors.New("malformed session token")
	ErrBadSignature   = errors.New("invalid session signature")
	ErrSessionExpired = errors.New("session expired")
)

const (
	sessionCookieName = "siterisk_session"
	minSecretLen      = 32

	// DefaultSessionTTL は発行直後のトークンの有効期間
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// CreateSessionToken はオーナーIDと有効期限から署名付きトークンを生成する
//
// 形式: base64url(ownerID "|" unixExpiry) "." hex(hmac-sha256(payload))
func CreateSessionToken(ownerID string, expires time.Time, secret []byte) string {
	payload := ownerID + "|" + strconv.FormatInt(expires.Unix(), 10)
	return base64.URLEncoding.EncodeToString([]byte(payload)) + "." + sign([]byte(payload), secret)
}

// VerifySessionToken はトークンを検証しオーナーIDを返す
func VerifySessionToken(token string, now time.Time, secret []byte) (string, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrMalformedToken
	}
	payload, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedToken
	}
	if !hmac.Equal([]byte(sign(payload, secret)), []byte(sig)) {
		return "", ErrBadSignature
	}

	ownerID, exp, ok := strings.Cut(string(payload), "|")
	if !ok || ownerID == "" {
		return "", ErrMalformedToken
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", ErrMalformedToken
	}
	if !now.Before(time.Unix(unix, 0)) {
		return "", ErrSessionExpired
	}
	return ownerID, nil
}

func sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes は文字列からセッション署名用のバイト列を生成する（最低32バイト）
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}
