package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/firebase"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/queue"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/security"
)

const (
	maxSuffixAttempts = 2
	maxUsernameLen    = 32
)

// resolve finds the Profile linked to a provider account, creating it on first sight.
func (b *Bridge) resolve(ctx context.Context, u *firebase.User) (*domain.Profile, error) {
	p, err := b.store.FindByExternalID(ctx, u.UID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p != nil {
		return p, nil
	}
	return b.provision(ctx, u, DeriveUsername(u.DisplayName, u.Email))
}

// provision creates a provider Profile under base, or base plus a random
// four-digit suffix when base is taken.
func (b *Bridge) provision(ctx context.Context, u *firebase.User, base string) (*domain.Profile, error) {
	for attempt := 0; attempt <= maxSuffixAttempts; attempt++ {
		name := base
		if attempt > 0 {
			n, err := security.RandomSuffix()
			if err != nil {
				return nil, apperr.Internal(err)
			}
			name = fmt.Sprintf("%s%d", base, n)
		}

		taken, err := b.store.FindByUsername(ctx, name)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken != nil {
			continue
		}

		p := domain.NewProfile(name, domain.ProviderFirebase, b.now())
		p.ExternalAuthID = u.UID
		err = b.store.Create(ctx, p)
		switch {
		case err == nil:
			b.logger(ctx).Info("profile provisioned",
				zap.String("profile_id", codec.RenderHandle(p.ID)), applog.Email(u.Email))
			b.events.Emit(ctx, queue.KeyRegistered, queue.ProfileRegistered{
				ProfileID: codec.RenderHandle(p.ID),
				Username:  p.Username,
				Email:     u.Email,
				Provider:  string(p.AuthProvider),
			})
			return p, nil
		case errors.Is(err, repo.ErrExternalIDTaken):
			// a concurrent request provisioned the same account first
			p, err := b.store.FindByExternalID(ctx, u.UID)
			if err != nil || p == nil {
				return nil, apperr.Internal(fmt.Errorf("reload provisioned profile: %w", err))
			}
			return p, nil
		case errors.Is(err, repo.ErrUsernameTaken):
			continue
		default:
			return nil, apperr.Internal(err)
		}
	}
	return nil, apperr.Conflict(msgUsernameTaken)
}

// DeriveUsername picks a username from the display name, then the email's
// local part, keeping only [A-Za-z0-9_.-]. It falls back to "user".
func DeriveUsername(displayName, email string) string {
	local, _, _ := strings.Cut(email, "@")
	for _, candidate := range []string{displayName, local} {
		if s := sanitize(candidate); s != "" {
			return s
		}
	}
	return "user"
}

func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			sb.WriteRune(r)
		}
		if sb.Len() == maxUsernameLen {
			break
		}
	}
	return sb.String()
}
