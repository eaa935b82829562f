package firebase_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/profile-service/internal/firebase"
)

const project = "demo-project"

type provider struct {
	key       *rsa.PrivateKey
	srv       *httptest.Server
	jwksHits  atomic.Int32
	lastBody  map[string]any
	lastPath  string
	lookupRes string
	status    int
	errBody   string
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := &provider{key: k, status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		p.jwksHits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA", "kid": "k1", "alg": "RS256", "use": "sig",
			"n": base64.RawURLEncoding.EncodeToString(k.PublicKey.N.Bytes()),
			"e": base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.PublicKey.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		p.lastPath = r.URL.Path + "?" + r.URL.RawQuery
		p.lastBody = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&p.lastBody)
		if p.status != http.StatusOK {
			w.WriteHeader(p.status)
			_, _ = w.Write([]byte(p.errBody))
			return
		}
		switch {
		case r.URL.Path == "/v1/projects/"+project+"/accounts:lookup":
			_, _ = w.Write([]byte(p.lookupRes))
		case r.URL.Path == "/v1/accounts:signUp", r.URL.Path == "/v1/accounts:signInWithPassword":
			_, _ = w.Write([]byte(`{"localId":"uid-1","email":"a@x.io","idToken":"id","refreshToken":"rt"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *provider) client(t *testing.T) *firebase.Client {
	t.Helper()
	c, err := firebase.New(firebase.Config{
		ProjectID: project,
		APIKey:    "key",
		BaseURL:   p.srv.URL + "/v1",
		JWKSURL:   p.srv.URL + "/jwks",
		Public:    p.srv.Client(),
		Admin:     p.srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func (p *provider) sign(t *testing.T, mutate func(c jwt.MapClaims)) string {
	t.Helper()
	now := time.Now()
	c := jwt.MapClaims{
		"iss":   "https://securetoken.google.com/" + project,
		"aud":   project,
		"sub":   "uid-1",
		"email": "a@x.io",
		"name":  "Alice",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(c)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString(p.key)
	require.NoError(t, err)
	return s
}

func TestVerifyToken(t *testing.T) {
	p := newProvider(t)
	c := p.client(t)
	ctx := context.Background()

	tok, err := c.VerifyToken(ctx, p.sign(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", tok.UID)
	assert.Equal(t, "a@x.io", tok.Email)
	assert.Equal(t, "Alice", tok.Name)
	assert.False(t, tok.IssuedAt.IsZero())

	_, err = c.VerifyToken(ctx, p.sign(t, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.jwksHits.Load(), "keys are cached")
}

func TestVerifyTokenRejects(t *testing.T) {
	p := newProvider(t)
	c := p.client(t)
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(jwt.MapClaims)
		want   error
	}{
		"expired":        {func(m jwt.MapClaims) { m["exp"] = time.Now().Add(-time.Minute).Unix() }, firebase.ErrIDTokenExpired},
		"wrong audience": {func(m jwt.MapClaims) { m["aud"] = "other" }, firebase.ErrIDTokenInvalid},
		"wrong issuer":   {func(m jwt.MapClaims) { m["iss"] = "https://evil.example" }, firebase.ErrIDTokenInvalid},
		"no subject":     {func(m jwt.MapClaims) { delete(m, "sub") }, firebase.ErrIDTokenInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.VerifyToken(ctx, p.sign(t, tc.mutate))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := c.VerifyToken(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, firebase.ErrIDTokenInvalid)
}

func TestGetUser(t *testing.T) {
	p := newProvider(t)
	c := p.client(t)

	p.lookupRes = `{"users":[{"localId":"uid-1","email":"a@x.io","displayName":"Alice","validSince":"1700000000"}]}`
	u, err := c.GetUser(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.Equal(t, int64(1700000000), u.ValidSince.Unix())
	assert.Equal(t, []any{"uid-1"}, p.lastBody["localId"])

	p.lookupRes = `{}`
	_, err = c.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, firebase.ErrUserNotFound)
}

func TestRevokeAndRename(t *testing.T) {
	p := newProvider(t)
	c := p.client(t)

	require.NoError(t, c.RevokeTokens(context.Background(), "uid-1"))
	assert.Contains(t, p.lastPath, "/projects/"+project+"/accounts:update")
	assert.Equal(t, "uid-1", p.lastBody["localId"])
	assert.NotEmpty(t, p.lastBody["validSince"])

	require.NoError(t, c.UpdateDisplayName(context.Background(), "uid-1", "alice"))
	assert.Equal(t, "alice", p.lastBody["displayName"])
}

func TestPasswordFlowsAndErrors(t *testing.T) {
	p := newProvider(t)
	c := p.client(t)

	s, err := c.SignUp(context.Background(), "a@x.io", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.UID)
	assert.Contains(t, p.lastPath, "accounts:signUp?key=key")
	assert.Equal(t, true, p.lastBody["returnSecureToken"])

	p.status = http.StatusBadRequest
	p.errBody = `{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`
	_, err = c.SignInWithPassword(context.Background(), "a@x.io", "x")
	require.Error(t, err)
	assert.Equal(t, "WEAK_PASSWORD", firebase.Code(err))
	var ae *firebase.APIError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Password should be at least 6 characters", ae.Detail)

	p.errBody = `{"error":{"message":"EMAIL_EXISTS"}}`
	_, err = c.SignUp(context.Background(), "a@x.io", "secret123")
	assert.Equal(t, "EMAIL_EXISTS", firebase.Code(err))
}
