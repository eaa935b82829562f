package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/firebase"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/queue"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/security"
	"github.com/tazhibayda/profile-service/internal/validate"
)

const (
	msgUsernameTaken  = "Username already exists"
	msgEmailTaken     = "Email already exists"
	msgBadLogin       = "Invalid username or password"
	msgBadEmailLogin  = "Invalid email or password"
	msgCredsRequired  = "Username and password are required."
	msgNoProvider     = "Email sign-in is not configured."
	msgAccountBlocked = "Account disabled"
)

// Result is what a successful sign-up or sign-in hands back to the caller.
type Result struct {
	Profile      *domain.Profile
	Email        string
	UID          string
	AccessToken  string
	IDToken      string
	RefreshToken string
}

// Register creates a local Profile. Any non-empty password is accepted.
func (b *Bridge) Register(ctx context.Context, username, secret string) (*domain.Profile, error) {
	p, err := b.register(ctx, strings.TrimSpace(username), secret)
	count("register", err)
	return p, err
}

func (b *Bridge) register(ctx context.Context, username, secret string) (*domain.Profile, error) {
	if username == "" || secret == "" {
		return nil, apperr.Validation(msgCredsRequired)
	}
	existing, err := b.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgUsernameTaken)
	}

	hash, err := security.HashPassword(secret)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	p := domain.NewProfile(username, domain.ProviderLocal, b.now())
	p.Password = hash
	if err := b.store.Create(ctx, p); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			return nil, apperr.Conflict(msgUsernameTaken)
		}
		return nil, apperr.Internal(err)
	}
	p.Password = ""

	b.events.Emit(ctx, queue.KeyRegistered, queue.ProfileRegistered{
		ProfileID: codec.RenderHandle(p.ID),
		Username:  p.Username,
		Provider:  string(p.AuthProvider),
	})
	return p, nil
}

// Login checks local credentials and issues an access token. Unknown users,
// provider-only profiles and wrong passwords fail identically.
func (b *Bridge) Login(ctx context.Context, username, secret string) (*Result, error) {
	res, err := b.login(ctx, strings.TrimSpace(username), secret)
	count("local", err)
	return res, err
}

func (b *Bridge) login(ctx context.Context, username, secret string) (*Result, error) {
	p, err := b.store.FindCredentials(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hash := ""
	if p != nil && p.HasPassword() {
		hash = p.Password
	}
	if !security.CheckPassword(hash, secret) {
		return nil, apperr.Unauthorized(msgBadLogin, nil)
	}
	p.Password = ""

	id := codec.RenderHandle(p.ID)
	tok, err := security.MakeAccess(b.secret, id, p.Username, b.ttl)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	b.events.Emit(ctx, queue.KeyLoggedIn, queue.ProfileLoggedIn{ProfileID: id, Provider: string(p.AuthProvider)})
	return &Result{Profile: p, AccessToken: tok}, nil
}

type signupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Username string `validate:"required,min=3,alphanum"`
}

var inputs = validator.New()

// SignUp registers an email account at the provider and links a new Profile to it.
func (b *Bridge) SignUp(ctx context.Context, email, secret, username string) (*Result, error) {
	res, err := b.signUp(ctx, validate.NormalizeEmail(email), secret, strings.TrimSpace(username))
	count("signup", err)
	return res, err
}

func (b *Bridge) signUp(ctx context.Context, email, secret, username string) (*Result, error) {
	if msgs := signupProblems(signupInput{Email: email, Password: secret, Username: username}); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	if b.idp == nil {
		return nil, apperr.Internal(errors.New(msgNoProvider))
	}
	existing, err := b.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgUsernameTaken)
	}

	sess, err := b.idp.SignUp(ctx, email, secret)
	if err != nil {
		return nil, providerError(err)
	}
	if err := b.idp.UpdateDisplayName(ctx, sess.UID, username); err != nil {
		b.logger(ctx).Warn("display name update failed", zap.String("uid", sess.UID), zap.Error(err))
	}

	p := domain.NewProfile(username, domain.ProviderFirebase, b.now())
	p.ExternalAuthID = sess.UID
	if err := b.store.Create(ctx, p); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			return nil, apperr.Conflict(msgUsernameTaken)
		}
		return nil, apperr.Internal(err)
	}
	b.logger(ctx).Info("provider account created",
		zap.String("profile_id", codec.RenderHandle(p.ID)), applog.Email(email))
	b.events.Emit(ctx, queue.KeyRegistered, queue.ProfileRegistered{
		ProfileID: codec.RenderHandle(p.ID),
		Username:  p.Username,
		Email:     email,
		Provider:  string(p.AuthProvider),
	})
	return &Result{
		Profile:      p,
		Email:        email,
		UID:          sess.UID,
		IDToken:      sess.IDToken,
		RefreshToken: sess.RefreshToken,
	}, nil
}

// SignIn authenticates an email account at the provider and returns its
// Profile, provisioning one when the account has none yet.
func (b *Bridge) SignIn(ctx context.Context, email, secret string) (*Result, error) {
	res, err := b.signIn(ctx, validate.NormalizeEmail(email), secret)
	count("signin", err)
	return res, err
}

func (b *Bridge) signIn(ctx context.Context, email, secret string) (*Result, error) {
	if email == "" || secret == "" {
		return nil, apperr.Validation("Email and password are required.")
	}
	if b.idp == nil {
		return nil, apperr.Internal(errors.New(msgNoProvider))
	}
	sess, err := b.idp.SignInWithPassword(ctx, email, secret)
	if err != nil {
		return nil, providerError(err)
	}
	user, err := b.lookup(ctx, sess.UID)
	if err != nil {
		return nil, err
	}
	p, err := b.resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	b.events.Emit(ctx, queue.KeyLoggedIn, queue.ProfileLoggedIn{
		ProfileID: codec.RenderHandle(p.ID),
		Provider:  string(p.AuthProvider),
	})
	return &Result{
		Profile:      p,
		Email:        user.Email,
		UID:          user.UID,
		IDToken:      sess.IDToken,
		RefreshToken: sess.RefreshToken,
	}, nil
}

func signupProblems(in signupInput) []string {
	err := inputs.Struct(in)
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return nil
	}
	var out []string
	for _, fe := range fes {
		switch fe.Field() + "." + fe.Tag() {
		case "Email.required", "Email.email":
			out = append(out, "Invalid email format.")
		case "Password.required", "Password.min":
			out = append(out, "Password must be at least 8 characters")
		case "Username.required", "Username.min":
			out = append(out, "Username must be at least 3 characters")
		case "Username.alphanum":
			out = append(out, "Username must contain only alphanumeric characters")
		}
	}
	return out
}

// providerError maps Identity Toolkit error codes onto the public taxonomy.
func providerError(err error) error {
	switch firebase.Code(err) {
	case "EMAIL_EXISTS":
		return apperr.Conflict(msgEmailTaken)
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS":
		return apperr.Unauthorized(msgBadEmailLogin, err)
	case "WEAK_PASSWORD":
		return apperr.Validation("Password must be at least 8 characters")
	case "INVALID_EMAIL":
		return apperr.Validation("Invalid email format.")
	case "USER_DISABLED":
		return apperr.Forbidden(msgAccountBlocked)
	default:
		return apperr.Internal(err)
	}
}
