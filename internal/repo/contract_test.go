package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/repo"
)

type profileStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	FindByUsername(ctx context.Context, username string) (*domain.Profile, error)
	FindByExternalID(ctx context.Context, uid string) (*domain.Profile, error)
	FindCredentials(ctx context.Context, username string) (*domain.Profile, error)
	EmailInUse(ctx context.Context, email string, except primitive.ObjectID) (bool, error)
	Create(ctx context.Context, p *domain.Profile) error
	ReplaceSection(ctx context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error)
	PatchSocials(ctx context.Context, id primitive.ObjectID, version int64, patch domain.SocialsPatch) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
}

var (
	_ profileStore = (*repo.Store)(nil)
	_ profileStore = (*repo.Memory)(nil)
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// runContract exercises the behaviour both store implementations must share.
func runContract(t *testing.T, newStore func(t *testing.T) profileStore) {
	ctx := context.Background()

	t.Run("create and read hides password", func(t *testing.T) {
		s := newStore(t)
		p := domain.NewProfile("alice", domain.ProviderLocal, time.Now())
		p.Password = "hash"
		require.NoError(t, s.Create(ctx, p))
		require.False(t, p.ID.IsZero())

		got, err := s.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.Username)
		assert.Empty(t, got.Password)

		cred, err := s.FindCredentials(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "hash", cred.Password)

		missing, err := s.FindByID(ctx, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("unique username and external id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, domain.NewProfile("bob", domain.ProviderLocal, time.Now())))
		err := s.Create(ctx, domain.NewProfile("bob", domain.ProviderLocal, time.Now()))
		assert.ErrorIs(t, err, repo.ErrUsernameTaken)

		a := domain.NewProfile("carol", domain.ProviderFirebase, time.Now())
		a.ExternalAuthID = "uid-1"
		require.NoError(t, s.Create(ctx, a))
		b := domain.NewProfile("carol2", domain.ProviderFirebase, time.Now())
		b.ExternalAuthID = "uid-1"
		assert.ErrorIs(t, s.Create(ctx, b), repo.ErrExternalIDTaken)

		got, err := s.FindByExternalID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("replace section bumps version and rejects stale writes", func(t *testing.T) {
		s := newStore(t)
		p := domain.NewProfile("dave", domain.ProviderLocal, time.Now())
		require.NoError(t, s.Create(ctx, p))

		first := []domain.Academic{
			{Institution: "MIT", Degree: "BS", FieldOfStudy: "CS", StartDate: day("2020-01-01")},
			{Institution: "CMU", Degree: "MS", FieldOfStudy: "CS", StartDate: day("2022-01-01")},
		}
		got, err := s.ReplaceSection(ctx, p.ID, 0, "academic", first)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Len(t, got.Academic, 2)

		got, err = s.ReplaceSection(ctx, p.ID, 1, "academic", first[:1])
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		require.Len(t, got.Academic, 1)
		assert.Equal(t, "MIT", got.Academic[0].Institution)

		_, err = s.ReplaceSection(ctx, p.ID, 1, "academic", first)
		assert.ErrorIs(t, err, repo.ErrVersionConflict)

		_, err = s.ReplaceSection(ctx, primitive.NewObjectID(), 0, "academic", first)
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("email uniqueness", func(t *testing.T) {
		s := newStore(t)
		a := domain.NewProfile("erin", domain.ProviderLocal, time.Now())
		b := domain.NewProfile("frank", domain.ProviderLocal, time.Now())
		require.NoError(t, s.Create(ctx, a))
		require.NoError(t, s.Create(ctx, b))

		pi := &domain.PersonalInfo{FirstName: "E", LastName: "R", Email: "e@x.io", Phone: "1"}
		_, err := s.ReplaceSection(ctx, a.ID, 0, "personalInfo", pi)
		require.NoError(t, err)

		used, err := s.EmailInUse(ctx, "e@x.io", b.ID)
		require.NoError(t, err)
		assert.True(t, used)
		used, err = s.EmailInUse(ctx, "E@X.io", b.ID)
		require.NoError(t, err)
		assert.True(t, used)
		used, err = s.EmailInUse(ctx, "e@x.io", a.ID)
		require.NoError(t, err)
		assert.False(t, used)

		_, err = s.ReplaceSection(ctx, b.ID, 0, "personalInfo", pi)
		assert.ErrorIs(t, err, repo.ErrEmailTaken)

		upper := &domain.PersonalInfo{FirstName: "F", LastName: "R", Email: "E@X.IO", Phone: "1"}
		_, err = s.ReplaceSection(ctx, b.ID, 0, "personalInfo", upper)
		assert.ErrorIs(t, err, repo.ErrEmailTaken)

		got, err := s.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "e@x.io", got.PersonalInfo.Email)
	})

	t.Run("patch socials keeps untouched platforms", func(t *testing.T) {
		s := newStore(t)
		p := domain.NewProfile("gina", domain.ProviderLocal, time.Now())
		require.NoError(t, s.Create(ctx, p))

		gh, web := "https://github.com/gina", "gina.dev"
		got, err := s.PatchSocials(ctx, p.ID, 0, domain.SocialsPatch{Github: &gh})
		require.NoError(t, err)
		got, err = s.PatchSocials(ctx, p.ID, got.Version, domain.SocialsPatch{Website: &web})
		require.NoError(t, err)
		require.NotNil(t, got.Socials)
		assert.Equal(t, gh, got.Socials.Github)
		assert.Equal(t, web, got.Socials.Website)
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)
		for _, u := range []string{"h1", "h2", "h3"} {
			p := domain.NewProfile(u, domain.ProviderLocal, time.Now())
			p.Password = "secret"
			require.NoError(t, s.Create(ctx, p))
		}
		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for _, p := range all {
			assert.Empty(t, p.Password)
		}
	})
}

func TestMemoryContract(t *testing.T) {
	runContract(t, func(*testing.T) profileStore { return repo.NewMemory() })
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := repo.NewMemory()
	p := domain.NewProfile("ivy", domain.ProviderLocal, time.Now())
	require.NoError(t, m.Create(ctx, p))

	got, err := m.FindByID(ctx, p.ID)
	require.NoError(t, err)
	got.Skills = append(got.Skills, "mutated")

	again, err := m.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Skills)
}
