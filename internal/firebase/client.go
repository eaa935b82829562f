// Package firebase talks to the Firebase Authentication backend: ID-token
// verification against the securetoken JWKS and the Identity Toolkit REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
	issuerPrefix   = "https://securetoken.google.com/"
)

var (
	ErrIDTokenInvalid = errors.New("firebase: invalid id token")
	ErrIDTokenExpired = errors.New("firebase: id token expired")
	ErrUserNotFound   = errors.New("firebase: user not found")
)

// APIError is an error reported by the Identity Toolkit, e.g. Code "EMAIL_EXISTS".
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("identitytoolkit %d: %s: %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("identitytoolkit %d: %s", e.Status, e.Code)
}

// Code extracts the provider error code from err, or "" when err is not an APIError.
func Code(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

type Config struct {
	ProjectID string
	APIKey    string
	BaseURL   string
	JWKSURL   string
	KeysTTL   time.Duration
	// Public carries API-key calls and JWKS fetches.
	Public *http.Client
	// Admin must be authorized with a service account.
	Admin *http.Client
}

type Client struct {
	project string
	apiKey  string
	base    string
	keys    *keySet
	public  *http.Client
	admin   *http.Client
	now     func() time.Time
}

func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase: project id required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.KeysTTL <= 0 {
		cfg.KeysTTL = time.Hour
	}
	if cfg.Public == nil {
		cfg.Public = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		project: cfg.ProjectID,
		apiKey:  cfg.APIKey,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		keys:    newKeySet(cfg.JWKSURL, cfg.KeysTTL, cfg.Public),
		public:  cfg.Public,
		admin:   cfg.Admin,
		now:     time.Now,
	}, nil
}

// Token is a verified ID token.
type Token struct {
	UID      string
	Email    string
	Name     string
	IssuedAt time.Time
}

type idClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// VerifyToken checks signature, issuer, audience and lifetime of an ID token.
func (c *Client) VerifyToken(ctx context.Context, idToken string) (*Token, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "firebase.verify")
	tok, err := c.verify(ctx, idToken)
	span.Finish(tracer.WithError(err))
	return tok, err
}

func (c *Client) verify(ctx context.Context, idToken string) (*Token, error) {
	claims := &idClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("no kid")
		}
		return c.keys.get(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(issuerPrefix+c.project),
		jwt.WithAudience(c.project),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrIDTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrIDTokenInvalid, err)
	}
	if claims.Subject == "" || len(claims.Subject) > 128 {
		return nil, fmt.Errorf("%w: bad subject", ErrIDTokenInvalid)
	}

	out := &Token{UID: claims.Subject, Email: claims.Email, Name: claims.Name}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// User is the provider's record of an account.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ValidSince  time.Time `json:"validSince"`
}

func (c *Client) GetUser(ctx context.Context, uid string) (*User, error) {
	var out struct {
		Users []struct {
			LocalID     string `json:"localId"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
			ValidSince  string `json:"validSince"`
		} `json:"users"`
	}
	if err := c.adminCall(ctx, "accounts:lookup", map[string]any{"localId": []string{uid}}, &out); err != nil {
		if Code(err) == "USER_NOT_FOUND" {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, ErrUserNotFound
	}
	u := out.Users[0]
	res := &User{UID: u.LocalID, Email: u.Email, DisplayName: u.DisplayName}
	if secs, err := strconv.ParseInt(u.ValidSince, 10, 64); err == nil && secs > 0 {
		res.ValidSince = time.Unix(secs, 0).UTC()
	}
	return res, nil
}

// RevokeTokens invalidates every refresh token and every ID token issued before now.
func (c *Client) RevokeTokens(ctx context.Context, uid string) error {
	body := map[string]any{
		"localId":    uid,
		"validSince": strconv.FormatInt(c.now().Unix(), 10),
	}
	return c.adminCall(ctx, "accounts:update", body, nil)
}

func (c *Client) UpdateDisplayName(ctx context.Context, uid, name string) error {
	return c.adminCall(ctx, "accounts:update", map[string]any{"localId": uid, "displayName": name}, nil)
}

// Session is what the password endpoints return.
type Session struct {
	UID          string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.passwordCall(ctx, "accounts:signUp", email, password)
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) passwordCall(ctx context.Context, method, email, password string) (*Session, error) {
	if c.apiKey == "" {
		return nil, errors.New("firebase: api key not configured")
	}
	var s Session
	u := c.base + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if err := c.post(ctx, c.public, u, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) adminCall(ctx context.Context, method string, body, out any) error {
	if c.admin == nil {
		return errors.New("firebase: admin credentials not configured")
	}
	u := c.base + "/projects/" + url.PathEscape(c.project) + "/" + method
	return c.post(ctx, c.admin, u, body, out)
}

func (c *Client) post(ctx context.Context, hc *http.Client, u string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("identitytoolkit: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identitytoolkit: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identitytoolkit: decode: %w", err)
	}
	return nil
}

// apiError parses {"error":{"message":"CODE : detail"}}.
func apiError(status int, raw []byte) error {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &env)
	msg := strings.TrimSpace(env.Error.Message)
	if msg == "" {
		return &APIError{Status: status, Code: "UNKNOWN"}
	}
	code, detail, _ := strings.Cut(msg, ":")
	return &APIError{Status: status, Code: strings.TrimSpace(code), Detail: strings.TrimSpace(detail)}
}
