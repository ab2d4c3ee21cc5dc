package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/worksheets/internal/rbac"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestAuthService_IssueAndParse(t *testing.T) {
	a := NewAuthService(secret, time.Hour)
	tok, exp, err := a.IssueJWT("p1", "teacher")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "p1", c.Sub)
	assert.Equal(t, "teacher", c.Role)

	_, err = NewAuthService("another secret entirely, 32 chars!", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestAuthService_Expired(t *testing.T) {
	a := NewAuthService(secret, time.Minute)
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := a.IssueJWT("p1", "student")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthService_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Sub: "p1", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewAuthService(secret, 0).Parse(s)
	assert.Error(t, err)
}

func viewerEcho(got *worksheet.Viewer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = ViewerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService(secret, time.Hour)
	tok, _, err := a.IssueJWT("p1", "student")
	require.NoError(t, err)

	var got worksheet.Viewer
	h := JWTMiddleware(a)(viewerEcho(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing bearer"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, worksheet.Viewer{ID: "p1", Role: worksheet.RoleStudent}, got)
}

func TestOptionalAuth(t *testing.T) {
	a := NewAuthService(secret, time.Hour)
	var got worksheet.Viewer
	h := OptionalAuth(a)(viewerEcho(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Anonymous())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type profiles map[string]worksheet.Profile

func (p profiles) GetProfile(_ context.Context, id string) (worksheet.Profile, error) {
	if v, ok := p[id]; ok {
		return v, nil
	}
	return worksheet.Profile{}, worksheet.ErrNotFound
}

func TestAttachRoleFromStore(t *testing.T) {
	store := profiles{"p1": {ID: "p1", Role: worksheet.RoleTeacher}}
	var got worksheet.Viewer

	serve := func(sub, role string, fallback bool) int {
		ctx := context.Background()
		if sub != "" {
			ctx = rbac.WithRole(WithSubject(ctx, sub), role)
		}
		rec := httptest.NewRecorder()
		got = worksheet.Viewer{}
		AttachRoleFromStore(store, fallback, nil)(viewerEcho(&got)).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec.Code
	}

	// stored role wins over a stale claim
	assert.Equal(t, http.StatusOK, serve("p1", "admin", false))
	assert.Equal(t, worksheet.RoleTeacher, got.Role)

	assert.Equal(t, http.StatusUnauthorized, serve("gone", "teacher", false))
	assert.Equal(t, http.StatusOK, serve("gone", "teacher", true))
	assert.Equal(t, worksheet.RoleTeacher, got.Role)

	assert.Equal(t, http.StatusOK, serve("", "", false))
	assert.True(t, got.Anonymous())
}
