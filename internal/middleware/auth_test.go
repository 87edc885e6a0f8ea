package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(secret, issuer, authorization, spoofedUser string) (*fasthttp.RequestCtx, string, bool) {
	var seenUser string
	called := false
	handler := JWTAuth(secret, issuer, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		seenUser = string(ctx.Request.Header.Peek("X-User-ID"))
	})

	ctx := &fasthttp.RequestCtx{}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	if spoofedUser != "" {
		ctx.Request.Header.Set("X-User-ID", spoofedUser)
	}
	handler(ctx)
	return ctx, seenUser, called
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		secret     string
		issuer     string
		auth       string
		spoofed    string
		wantCalled bool
		wantUser   string
	}{
		{
			name:       "user_id claim",
			secret:     testSecret,
			auth:       "Bearer " + sign(t, jwt.MapClaims{"user_id": "u1", "exp": exp}, testSecret),
			wantCalled: true,
			wantUser:   "u1",
		},
		{
			name:       "sub claim",
			secret:     testSecret,
			auth:       "Bearer " + sign(t, jwt.MapClaims{"sub": "u2", "exp": exp}, testSecret),
			wantCalled: true,
			wantUser:   "u2",
		},
		{
			name:    "wrong secret",
			secret:  testSecret,
			auth:    "Bearer " + sign(t, jwt.MapClaims{"sub": "u2"}, "other"),
			spoofed: "admin",
		},
		{
			name:   "expired",
			secret: testSecret,
			auth:   "Bearer " + sign(t, jwt.MapClaims{"sub": "u2", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret),
		},
		{
			name:       "matching issuer",
			secret:     testSecret,
			issuer:     "portal-auth",
			auth:       "Bearer " + sign(t, jwt.MapClaims{"sub": "u3", "iss": "portal-auth", "exp": exp}, testSecret),
			wantCalled: true,
			wantUser:   "u3",
		},
		{
			name:   "foreign issuer",
			secret: testSecret,
			issuer: "portal-auth",
			auth:   "Bearer " + sign(t, jwt.MapClaims{"sub": "u3", "iss": "elsewhere", "exp": exp}, testSecret),
		},
		{
			name:   "issuer required but absent",
			secret: testSecret,
			issuer: "portal-auth",
			auth:   "Bearer " + sign(t, jwt.MapClaims{"sub": "u3", "exp": exp}, testSecret),
		},
		{
			name:   "missing token",
			secret: testSecret,
		},
		{
			name:       "disabled keeps upstream header",
			secret:     "",
			spoofed:    "gateway-user",
			wantCalled: true,
			wantUser:   "gateway-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, user, called := run(tt.secret, tt.issuer, tt.auth, tt.spoofed)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantUser, user)
			if !tt.wantCalled {
				assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
			}
		})
	}
}
