package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	capjwt "github.com/hashicorp/cap/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://idp.example.org"

// fakeValidator accepts tokens signed with its key and returns their claims.
type fakeValidator struct {
	key      []byte
	expected capjwt.Expected
}

func (f *fakeValidator) Validate(_ context.Context, token string, expected capjwt.Expected) (map[string]interface{}, error) {
	f.expected = expected
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return f.key, nil }); err != nil {
		return nil, err
	}
	return claims, nil
}

func signToken(t *testing.T, key []byte, issuer, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": issuer, "sub": subject}).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestAuth(writeSubjects ...string) (*Authenticator, *fakeValidator) {
	v := &fakeValidator{key: []byte("secret")}
	return NewAuthenticatorWithValidators(map[string]TokenValidator{testIssuer: v}, "fedreg", writeSubjects), v
}

func serve(a *Authenticator, method, token string) (*httptest.ResponseRecorder, *Identity) {
	var seen *Identity
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/providers", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth_AnonymousRead(t *testing.T) {
	a, _ := newTestAuth()
	rec, id := serve(a, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, id)
}

func TestAuth_AnonymousWrite(t *testing.T) {
	a, _ := newTestAuth()
	rec, _ := serve(a, http.MethodPost, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", errorBody(t, rec))
}

func TestAuth_ValidToken(t *testing.T) {
	a, v := newTestAuth()
	token := signToken(t, v.key, testIssuer, "alice")

	rec, id := serve(a, http.MethodPatch, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, id)
	assert.Equal(t, testIssuer, id.Issuer)
	assert.Equal(t, "alice", id.Subject)
	assert.Equal(t, testIssuer, v.expected.Issuer)
	assert.Equal(t, []string{"fedreg"}, v.expected.Audiences)
	assert.NotEmpty(t, v.expected.SigningAlgorithms)
}

func TestAuth_BadSignature(t *testing.T) {
	a, _ := newTestAuth()
	token := signToken(t, []byte("other"), testIssuer, "alice")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec, _ := serve(a, method, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
		assert.Equal(t, "Invalid token", errorBody(t, rec))
	}
}

func TestAuth_Garbage(t *testing.T) {
	a, _ := newTestAuth()
	rec, _ := serve(a, http.MethodGet, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_UntrustedIssuer(t *testing.T) {
	a, v := newTestAuth()
	token := signToken(t, v.key, "https://evil.example.org", "alice")

	rec, _ := serve(a, http.MethodPut, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Issuer not trusted", errorBody(t, rec))

	rec, id := serve(a, http.MethodGet, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, id)
}

func TestAuth_WriteSubjects(t *testing.T) {
	a, v := newTestAuth("admin")

	rec, _ := serve(a, http.MethodDelete, signToken(t, v.key, testIssuer, "alice"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, id := serve(a, http.MethodGet, signToken(t, v.key, testIssuer, "alice"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, id)

	rec, _ = serve(a, http.MethodDelete, signToken(t, v.key, testIssuer, "admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"empty", "", ""},
		{"no prefix", "abc", ""},
		{"basic auth ignored", "Basic dXNlcjpwYXNz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearer(req))
		})
	}
}

func TestUnverifiedIssuer(t *testing.T) {
	iss, err := unverifiedIssuer(signToken(t, []byte("k"), testIssuer, "s"))
	require.NoError(t, err)
	assert.Equal(t, testIssuer, iss)

	_, err = unverifiedIssuer(signToken(t, []byte("k"), "", "s"))
	assert.Error(t, err)

	_, err = unverifiedIssuer("x")
	assert.Error(t, err)
}
