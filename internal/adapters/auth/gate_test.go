package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/dkeye/roomcoord/internal/store/memory"
	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims map[string]any, exp time.Time) string {
	t.Helper()
	b := jwt.NewBuilder().IssuedAt(time.Now()).Expiration(exp)
	for k, v := range claims {
		b = b.Claim(k, v)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		t.Fatal(err)
	}
	return string(signed)
}

func newGate() *Gate {
	return &Gate{
		Verifier: NewVerifier(testSecret),
		Users:    memory.NewUsers(domain.User{ID: "u1", Name: "Ada", Role: "student", Avatar: "ada.png"}),
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	hour := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		want    domain.Identity
		wantErr error
	}{
		{
			name:  "full claims skip lookup",
			token: sign(t, testSecret, map[string]any{"id": "u9", "name": "Bob", "role": "admin", "avatar": "bob.png"}, hour),
			want:  domain.Identity{ID: "u9", Name: "Bob", Role: "admin", Avatar: "bob.png"},
		},
		{
			name:  "missing avatar backfills",
			token: sign(t, testSecret, map[string]any{"id": "u1", "name": "Ada L", "role": "admin"}, hour),
			want:  domain.Identity{ID: "u1", Name: "Ada L", Role: "admin", Avatar: "ada.png"},
		},
		{
			name:  "backfill from store",
			token: sign(t, testSecret, map[string]any{"sub": "u1"}, hour),
			want:  domain.Identity{ID: "u1", Name: "Ada", Role: "student", Avatar: "ada.png"},
		},
		{
			name:    "unknown user",
			token:   sign(t, testSecret, map[string]any{"id": "u404"}, hour),
			wantErr: ErrUnknownUser,
		},
		{
			name:    "wrong key",
			token:   sign(t, "other", map[string]any{"id": "u1"}, hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "expired",
			token:   sign(t, testSecret, map[string]any{"id": "u1"}, time.Now().Add(-time.Hour)),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing",
			wantErr: ErrMissingToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newGate().Authenticate(ctx, tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if domain.KindOf(err) != domain.KindAuthenticationRequired {
					t.Errorf("kind = %s", domain.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("identity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		header string
		url    string
		want   string
	}{
		{"bearer header", "Bearer abc", "/ws", "abc"},
		{"query", "", "/ws?token=q", "q"},
		{"header wins", "Bearer h", "/ws?token=q", "h"},
		{"other scheme ignored", "Basic xyz", "/ws", ""},
		{"nothing and no session", "", "/ws", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			if got := TokenFromRequest(c); got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
