package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type contextKey string

const ownerIDKey contextKey = "owner_id"

// OwnerIDFromContext は context からオーナーIDを取得する
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ownerIDKey).(string)
	return v, ok && v != ""
}

// WithOwnerID は context にオーナーIDをセットする
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// RequireAuth は認証必須ミドルウェア。セッションを検証し、オーナーIDを context にセットする
func RequireAuth(sessionSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName())
			if err != nil {
				unauthorized(w, "unauthorized")
				return
			}

			ownerID, err := VerifySessionToken(cookie.Value, time.Now(), sessionSecret)
			if errors.Is(err, ErrSessionExpired) {
				unauthorized(w, "session_expired")
				return
			}
			if err != nil {
				unauthorized(w, "invalid_session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
		})
	}
}

// DevOwnerID は開発用のダミーオーナーID（AUTH_REQUIRED=false 時に使用）
const DevOwnerID = "dev-owner-id"

// DevAuth は開発用ミドルウェア。ダミーオーナーIDを context にセットする
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), DevOwnerID)))
	})
}

// Middleware は required が true なら RequireAuth、それ以外は DevAuth を返す
func Middleware(required bool, sessionSecret []byte) func(http.Handler) http.Handler {
	if required {
		return RequireAuth(sessionSecret)
	}
	return DevAuth
}
