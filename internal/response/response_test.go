package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/domain"
	"github.com/tazhibayda/profile-service/internal/response"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestFromProfileRendersDatesAndHidesCredentials(t *testing.T) {
	end := date("2023-06-30")
	p := &domain.Profile{
		ID:             primitive.NewObjectID(),
		Username:       "alice",
		Password:       "$2a$12$secret",
		AuthProvider:   domain.ProviderFirebase,
		ExternalAuthID: "firebase-uid",
		Academic: []domain.Academic{
			{Institution: "MIT", StartDate: date("2020-01-01"), EndDate: &end},
			{Institution: "CMU", StartDate: date("2024-01-01")},
		},
	}

	out := response.FromProfile(p)
	assert.Equal(t, p.ID.Hex(), out.ID)
	require.Len(t, out.Academic, 2)
	assert.Equal(t, "2020-01-01", out.Academic[0].StartDate)
	assert.Equal(t, "2023-06-30", out.Academic[0].EndDate)
	assert.Equal(t, "", out.Academic[1].EndDate)
	assert.Equal(t, []string{}, out.Skills)
	assert.NotNil(t, out.Projects)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	body := string(b)
	assert.False(t, strings.Contains(body, "secret"))
	assert.False(t, strings.Contains(body, "firebase-uid"))
	assert.Contains(t, body, `"skills":[]`)
}

func TestFromProfileDateOfBirth(t *testing.T) {
	dob := date("1990-02-03")
	p := &domain.Profile{PersonalInfo: &domain.PersonalInfo{FirstName: "A", DateOfBirth: &dob}}
	assert.Equal(t, "1990-02-03", response.FromProfile(p).PersonalInfo.DateOfBirth)

	p.PersonalInfo.DateOfBirth = nil
	assert.Equal(t, "", response.FromProfile(p).PersonalInfo.DateOfBirth)
}

func TestFromError(t *testing.T) {
	status, env := response.FromError(apperr.Validation("a", "b"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"a", "b"}, env.Errors)

	status, env = response.FromError(errors.New("mongo: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, []string{apperr.InternalMessage}, env.Errors)

	status, env = response.FromError(apperr.NotFound("User not found."))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestSuccessEnvelope(t *testing.T) {
	b, err := json.Marshal(response.Success("Skills updated successfully.", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Skills updated successfully."}`, string(b))
}
