package profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/validate"
)

var clock = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

// fakeRepo delegates to an in-memory store unless a hook overrides the call.
type fakeRepo struct {
	*repo.Memory
	findCalls      int
	findByIDFn     func(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	replaceSection func(ctx context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error)
}

func (f *fakeRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	f.findCalls++
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return f.Memory.FindByID(ctx, id)
}

func (f *fakeRepo) ReplaceSection(ctx context.Context, id primitive.ObjectID, version int64, field string, value any) (*domain.Profile, error) {
	if f.replaceSection != nil {
		return f.replaceSection(ctx, id, version, field, value)
	}
	return f.Memory.ReplaceSection(ctx, id, version, field, value)
}

func setup(t *testing.T) (*profile.Service, *fakeRepo, string) {
	t.Helper()
	r := &fakeRepo{Memory: repo.NewMemory()}
	p := domain.NewProfile("alice", domain.ProviderLocal, clock())
	require.NoError(t, r.Create(context.Background(), p))
	return profile.NewService(r, validate.New(clock), nil, nil), r, codec.RenderHandle(p.ID)
}

func payload(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestUpdateAcademicSuccess(t *testing.T) {
	svc, _, id := setup(t)

	p, err := svc.Update(context.Background(), profile.SectionAcademic, id, payload(t, `[
		{"institution":"MIT","degree":"BS","fieldOfStudy":"CS","startDate":"2020-01-01"}
	]`))
	require.NoError(t, err)
	require.Len(t, p.Academic, 1)
	assert.Equal(t, "MIT", p.Academic[0].Institution)
	assert.Equal(t, "2020-01-01", codec.RenderDate(p.Academic[0].StartDate))
	assert.Nil(t, p.Academic[0].EndDate)
	assert.Equal(t, "", p.Academic[0].Grade)
	assert.Equal(t, "Academic records updated successfully.", profile.SuccessMessage(profile.SectionAcademic))
}

func TestValidationFailureSkipsStore(t *testing.T) {
	svc, r, id := setup(t)

	_, err := svc.Update(context.Background(), profile.SectionAcademic, id, payload(t, `[]`))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Equal(t, []string{"Academics data must be a non-empty array."}, apperr.Public(err))
	assert.Zero(t, r.findCalls)
}

func TestUpdateIsIdempotentAndReplacesWholeList(t *testing.T) {
	svc, _, id := setup(t)
	ctx := context.Background()
	two := payload(t, `[
		{"company":"Acme","position":"Dev","startDate":"2020-01-01","isCurrent":true},
		{"company":"Old","position":"Dev","startDate":"2018-01-01","isCurrent":false,"endDate":"2019-06-30"}
	]`)

	first, err := svc.Update(ctx, profile.SectionWorkExperience, id, two)
	require.NoError(t, err)
	second, err := svc.Update(ctx, profile.SectionWorkExperience, id, two)
	require.NoError(t, err)
	assert.Equal(t, first.WorkExperience, second.WorkExperience)
	assert.Equal(t, first.Version+1, second.Version)

	one, err := svc.Update(ctx, profile.SectionWorkExperience, id, payload(t, `[
		{"company":"New","position":"Lead","startDate":"2023-01-01","isCurrent":true}
	]`))
	require.NoError(t, err)
	require.Len(t, one.WorkExperience, 1)
	assert.Equal(t, "New", one.WorkExperience[0].Company)
}

func TestUpdateLeavesOtherSectionsAlone(t *testing.T) {
	svc, _, id := setup(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, profile.SectionSkills, id, payload(t, `["Go"," Mongo "]`))
	require.NoError(t, err)
	p, err := svc.Update(ctx, profile.SectionAchievements, id, payload(t, `[{"title":"Prize","date":"2024-01-01"}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Mongo"}, p.Skills)
	assert.Len(t, p.Achievements, 1)
	assert.Equal(t, "alice", p.Username)
}

func TestUpdateUnknownProfileAndBadHandle(t *testing.T) {
	svc, _, _ := setup(t)
	body := payload(t, `["Go"]`)

	_, err := svc.Update(context.Background(), profile.SectionSkills, primitive.NewObjectID().Hex(), body)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	assert.Equal(t, []string{"User not found."}, apperr.Public(err))

	_, err = svc.Update(context.Background(), profile.SectionSkills, "not-an-id", body)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Equal(t, []string{"Invalid profile id."}, apperr.Public(err))
}

func TestPersonalInfoEmailConflict(t *testing.T) {
	svc, r, id := setup(t)
	ctx := context.Background()

	other := domain.NewProfile("bob", domain.ProviderLocal, clock())
	require.NoError(t, r.Create(ctx, other))

	info := payload(t, `{"firstName":"A","lastName":"B","email":"Shared@x.io","phone":"1"}`)
	p, err := svc.Update(ctx, profile.SectionPersonalInfo, id, info)
	require.NoError(t, err)
	assert.Equal(t, "Shared@x.io", p.PersonalInfo.Email)

	// re-saving your own email is fine
	_, err = svc.Update(ctx, profile.SectionPersonalInfo, id, info)
	require.NoError(t, err)

	_, err = svc.Update(ctx, profile.SectionPersonalInfo, codec.RenderHandle(other.ID),
		payload(t, `{"firstName":"C","lastName":"D","email":"shared@X.IO","phone":"2"}`))
	assert.Equal(t, http.StatusConflict, apperr.Status(err))

	_, err = svc.Update(ctx, profile.SectionPersonalInfo, codec.RenderHandle(other.ID), info)
	assert.Equal(t, http.StatusConflict, apperr.Status(err))
	assert.Equal(t, []string{"Email is already in use by another account."}, apperr.Public(err))
}

func TestStaleWriteIsConflict(t *testing.T) {
	svc, r, id := setup(t)
	r.replaceSection = func(context.Context, primitive.ObjectID, int64, string, any) (*domain.Profile, error) {
		return nil, repo.ErrVersionConflict
	}

	_, err := svc.Update(context.Background(), profile.SectionSkills, id, payload(t, `["Go"]`))
	assert.Equal(t, http.StatusConflict, apperr.Status(err))
}

func TestStoreFailureIsInternal(t *testing.T) {
	svc, r, id := setup(t)
	r.findByIDFn = func(context.Context, primitive.ObjectID) (*domain.Profile, error) {
		return nil, errors.New("connection reset")
	}

	_, err := svc.Update(context.Background(), profile.SectionSkills, id, payload(t, `["Go"]`))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
	assert.Equal(t, []string{apperr.InternalMessage}, apperr.Public(err))
}

func TestSocialsMerge(t *testing.T) {
	svc, _, id := setup(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, profile.SectionSocials, id, payload(t, `{"github":"https://github.com/alice"}`))
	require.NoError(t, err)
	p, err := svc.Update(ctx, profile.SectionSocials, id, payload(t, `{"linkedIn":"linkedin.com/in/alice"}`))
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/alice", p.Socials.Github)
	assert.Equal(t, "linkedin.com/in/alice", p.Socials.LinkedIn)

	_, err = svc.Update(ctx, profile.SectionSocials, id, payload(t, `{}`))
	assert.Equal(t, []string{"At least one social link is required."}, apperr.Public(err))
}

func TestSocialsBlankValueClearsLink(t *testing.T) {
	svc, _, id := setup(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, profile.SectionSocials, id, payload(t, `{"github":"https://github.com/alice"}`))
	require.NoError(t, err)
	p, err := svc.Update(ctx, profile.SectionSocials, id, payload(t, `{"linkedIn":"linkedin.com/in/a","github":""}`))
	require.NoError(t, err)
	assert.Equal(t, "", p.Socials.Github)
	assert.Equal(t, "linkedin.com/in/a", p.Socials.LinkedIn)

	_, err = svc.Update(ctx, profile.SectionSocials, id, payload(t, `{"linkedIn":""}`))
	assert.Equal(t, []string{"At least one social link is required."}, apperr.Public(err))
	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "linkedin.com/in/a", got.Socials.LinkedIn)
}

func TestGetAndList(t *testing.T) {
	svc, _, id := setup(t)

	p, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEverySectionHasAMessage(t *testing.T) {
	for _, s := range profile.Sections() {
		assert.NotEmpty(t, profile.SuccessMessage(s), s)
	}
}
