// Package auth maps credentials and bearer tokens onto Profiles. Local
// accounts use bcrypt and HS256 access tokens; provider accounts use
// Firebase ID tokens and are provisioned on first sight.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/firebase"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/metrics"
	"github.com/tazhibayda/profile-service/internal/queue"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUserNotFound = errors.New("user not found")
)

type IdentityProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*firebase.Token, error)
	GetUser(ctx context.Context, uid string) (*firebase.User, error)
	RevokeTokens(ctx context.Context, uid string) error
	UpdateDisplayName(ctx context.Context, uid, name string) error
	SignUp(ctx context.Context, email, password string) (*firebase.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*firebase.Session, error)
}

type ProfileStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	FindByUsername(ctx context.Context, username string) (*domain.Profile, error)
	FindByExternalID(ctx context.Context, uid string) (*domain.Profile, error)
	FindCredentials(ctx context.Context, username string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
}

// IdentityCache holds provider user records between requests.
type IdentityCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type Options struct {
	JWTSecret string
	AccessTTL time.Duration
	// IDP nil disables provider tokens and the email flows.
	IDP      IdentityProvider
	Cache    IdentityCache
	CacheTTL time.Duration
	Events   *queue.Emitter
	Log      *zap.Logger
	Now      func() time.Time
}

// UserContext is the authenticated caller.
type UserContext struct {
	ProfileID      string              `json:"userId"`
	Username       string              `json:"username"`
	Email          string              `json:"email,omitempty"`
	ExternalAuthID string              `json:"uid,omitempty"`
	Provider       domain.AuthProvider `json:"authProvider"`
}

type Bridge struct {
	store  ProfileStore
	secret string
	ttl    time.Duration
	idp    IdentityProvider
	cache  IdentityCache
	cttl   time.Duration
	events *queue.Emitter
	log    *zap.Logger
	now    func() time.Time
}

func NewBridge(store ProfileStore, o Options) *Bridge {
	if o.AccessTTL <= 0 {
		o.AccessTTL = time.Hour
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Bridge{
		store:  store,
		secret: o.JWTSecret,
		ttl:    o.AccessTTL,
		idp:    o.IDP,
		cache:  o.Cache,
		cttl:   o.CacheTTL,
		events: o.Events,
		log:    o.Log,
		now:    o.Now,
	}
}

// ProviderEnabled reports whether provider tokens and email flows are available.
func (b *Bridge) ProviderEnabled() bool { return b.idp != nil }

func (b *Bridge) logger(ctx context.Context) *zap.Logger { return applog.WithDD(ctx, b.log) }

func unauthorized(msg string, kind error) error { return apperr.Unauthorized(msg, kind) }

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func count(method string, err error) {
	outcome := "ok"
	if err != nil {
		switch apperr.From(err).Kind {
		case apperr.ErrUnauthorized:
			outcome = "denied"
		case apperr.ErrValidation:
			outcome = "invalid"
		case apperr.ErrConflict:
			outcome = "conflict"
		default:
			outcome = "error"
		}
	}
	metrics.AuthAttempts.WithLabelValues(method, outcome).Inc()
}
