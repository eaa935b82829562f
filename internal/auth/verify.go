package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/firebase"
	"github.com/tazhibayda/profile-service/internal/security"
)

const (
	msgMissingToken = "Authorization header missing"
	msgBadToken     = "Invalid token"
	msgExpired      = "Token expired"
	msgRevoked      = "Token revoked"
	msgNoUser       = "User not found"
)

// Verify authenticates a bearer token. Local tokens resolve by profile id;
// provider tokens resolve by external id and provision a Profile when none exists.
func (b *Bridge) Verify(ctx context.Context, bearer string) (*UserContext, error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "auth.verify")
	uc, err := b.verify(ctx, bearer)
	span.Finish(tracer.WithError(err))
	return uc, err
}

// VerifyProvider is Verify restricted to identity provider tokens. Access
// tokens minted by this service are rejected.
func (b *Bridge) VerifyProvider(ctx context.Context, bearer string) (*UserContext, error) {
	if iss, err := security.PeekIssuer(bearer); err == nil && iss == security.Issuer {
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}
	return b.Verify(ctx, bearer)
}

func (b *Bridge) verify(ctx context.Context, bearer string) (*UserContext, error) {
	if bearer == "" {
		return nil, unauthorized(msgMissingToken, ErrInvalidToken)
	}
	iss, err := security.PeekIssuer(bearer)
	if err != nil {
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}
	if iss == security.Issuer {
		return b.verifyLocal(ctx, bearer)
	}
	if b.idp == nil {
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}
	return b.verifyProvider(ctx, bearer)
}

func (b *Bridge) verifyLocal(ctx context.Context, bearer string) (*UserContext, error) {
	c, err := security.ParseAccess(b.secret, bearer)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, unauthorized(msgExpired, ErrTokenExpired)
	case err != nil:
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}
	id, err := codec.ParseHandle(c.UID)
	if err != nil {
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}
	p, err := b.store.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, unauthorized(msgNoUser, ErrUserNotFound)
	}
	return userContext(p, ""), nil
}

func (b *Bridge) verifyProvider(ctx context.Context, bearer string) (*UserContext, error) {
	tok, err := b.idp.VerifyToken(ctx, bearer)
	switch {
	case errors.Is(err, firebase.ErrIDTokenExpired):
		return nil, unauthorized(msgExpired, ErrTokenExpired)
	case err != nil:
		b.logger(ctx).Debug("provider token rejected", zap.Error(err))
		return nil, unauthorized(msgBadToken, ErrInvalidToken)
	}

	user, err := b.lookup(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	if !user.ValidSince.IsZero() && tok.IssuedAt.Before(user.ValidSince) {
		return nil, unauthorized(msgRevoked, ErrTokenExpired)
	}

	p, err := b.resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	return userContext(p, user.Email), nil
}

// lookup returns the provider's user record, through the cache when configured.
func (b *Bridge) lookup(ctx context.Context, uid string) (*firebase.User, error) {
	key := cacheKey(uid)
	if b.cache != nil {
		var u firebase.User
		hit, err := b.cache.GetJSON(ctx, key, &u)
		if err != nil {
			b.logger(ctx).Warn("identity cache read failed", zap.Error(err))
		}
		if hit {
			return &u, nil
		}
	}

	u, err := b.idp.GetUser(ctx, uid)
	switch {
	case errors.Is(err, firebase.ErrUserNotFound):
		return nil, unauthorized(msgNoUser, ErrUserNotFound)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	if b.cache != nil && b.cttl > 0 {
		if err := b.cache.SetJSON(ctx, key, u, b.cttl); err != nil {
			b.logger(ctx).Warn("identity cache write failed", zap.Error(err))
		}
	}
	return u, nil
}

// Revoke signs the caller out everywhere at the provider. Revoking an
// already-revoked token succeeds. Local tokens carry no server state.
func (b *Bridge) Revoke(ctx context.Context, bearer string) error {
	if bearer == "" {
		return unauthorized(msgMissingToken, ErrInvalidToken)
	}
	iss, err := security.PeekIssuer(bearer)
	if err != nil {
		return unauthorized(msgBadToken, ErrInvalidToken)
	}
	if iss == security.Issuer {
		_, err := b.verifyLocal(ctx, bearer)
		return err
	}
	if b.idp == nil {
		return unauthorized(msgBadToken, ErrInvalidToken)
	}

	tok, err := b.idp.VerifyToken(ctx, bearer)
	switch {
	case errors.Is(err, firebase.ErrIDTokenExpired):
		return unauthorized(msgExpired, ErrTokenExpired)
	case err != nil:
		return unauthorized(msgBadToken, ErrInvalidToken)
	}
	if err := b.idp.RevokeTokens(ctx, tok.UID); err != nil {
		return apperr.Internal(err)
	}
	if b.cache != nil {
		if err := b.cache.Del(ctx, cacheKey(tok.UID)); err != nil {
			b.logger(ctx).Warn("identity cache delete failed", zap.Error(err))
		}
	}
	b.logger(ctx).Info("provider tokens revoked", zap.String("uid", tok.UID))
	return nil
}

func cacheKey(uid string) string { return "identity:" + uid }

func userContext(p *domain.Profile, email string) *UserContext {
	if email == "" && p.PersonalInfo != nil {
		email = p.PersonalInfo.Email
	}
	return &UserContext{
		ProfileID:      codec.RenderHandle(p.ID),
		Username:       p.Username,
		Email:          email,
		ExternalAuthID: p.ExternalAuthID,
		Provider:       p.AuthProvider,
	}
}
