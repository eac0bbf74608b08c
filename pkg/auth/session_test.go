package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var sessionNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func TestSessionToken_RoundTrip(t *testing.T) {
	token := CreateSessionToken("owner-1", sessionNow.Add(time.Hour), testSecret)

	got, err := VerifySessionToken(token, sessionNow, testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "owner-1" {
		t.Errorf("expected owner-1, got %q", got)
	}
}

func TestSessionToken_Errors(t *testing.T) {
	valid := CreateSessionToken("owner-1", sessionNow.Add(time.Hour), testSecret)
	encoded, sig, _ := strings.Cut(valid, ".")

	tests := []struct {
		name  string
		token string
		now   time.Time
		want  error
	}{
		{"no separator", "abc", sessionNow, ErrMalformedToken},
		{"bad base64", "!!!." + sig, sessionNow, ErrMalformedToken},
		{"tampered signature", encoded + ".00", sessionNow, ErrBadSignature},
		{"other secret", CreateSessionToken("owner-1", sessionNow.Add(time.Hour), SessionSecretBytes("another")), sessionNow, ErrBadSignature},
		{"expired", valid, sessionNow.Add(time.Hour), ErrSessionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifySessionToken(tt.token, tt.now, testSecret)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSessionSecretBytes_PadsShortSecrets(t *testing.T) {
	if got := len(SessionSecretBytes("short")); got != 32 {
		t.Errorf("expected 32 bytes, got %d", got)
	}
	long := strings.Repeat("x", 40)
	if got := string(SessionSecretBytes(long)); got != long {
		t.Errorf("expected long secret unchanged")
	}
}
