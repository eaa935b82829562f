package profile_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/response"
)

// sectionPayloads fills every field each section accepts.
var sectionPayloads = map[profile.Section]string{
	profile.SectionPersonalInfo: `{"firstName":"Ada","lastName":"Lovelace","email":"Ada@Example.com","phone":"+44 20",
		"dateOfBirth":"1990-12-10","resume":"https://cv.example.com/ada.pdf",
		"address":{"street":"1 Main St","city":"London","state":"LDN","country":"UK","zipCode":"N1"}}`,
	profile.SectionAcademic: `[{"institution":"MIT","degree":"BS","fieldOfStudy":"CS","startDate":"2016-09-01",
		"endDate":"2020-06-01","description":"Theory","grade":"3.9"}]`,
	profile.SectionProjects: `[{"title":"Engine","description":"Analytical","startDate":"2021-01-01","endDate":"2022-01-01",
		"technologiesUsed":["Go","Mongo"],"projectLink":"https://github.com/ada/engine","isOpenSource":true}]`,
	profile.SectionWorkExperience: `[{"company":"Acme","position":"Dev","startDate":"2020-01-01","endDate":"2021-06-30",
		"description":"Backend","isCurrent":false}]`,
	profile.SectionCertifications: `[{"name":"CKA","issuingOrganization":"CNCF","issueDate":"2022-01-10",
		"expirationDate":"2025-01-10","credentialId":"ABC-123","credentialURL":"https://cncf.io/cred/abc"}]`,
	profile.SectionAchievements: `[{"title":"Award","date":"2023-03-01","description":"Best paper","issuer":"IEEE"}]`,
	profile.SectionPublications: `[{"title":"Notes","publisher":"Royal Society","publicationDate":"2023-05-05",
		"description":"On engines","link":"https://example.com/notes"}]`,
	profile.SectionSkills:  `["Go","Mongo"]`,
	profile.SectionSocials: `{"linkedIn":"linkedin.com/in/ada","github":"https://github.com/ada"}`,
}

// containsJSON checks that every value in want appears at the same place in got.
func containsJSON(t *testing.T, want, got any, path string) {
	t.Helper()
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		require.True(t, ok, "%s: not an object: %v", path, got)
		for k, v := range w {
			containsJSON(t, v, g[k], path+"."+k)
		}
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: not an array: %v", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			containsJSON(t, w[i], g[i], path)
		}
	default:
		assert.Equal(t, want, got, path)
	}
}

func TestEverySectionRoundTrips(t *testing.T) {
	require.Len(t, sectionPayloads, len(profile.Sections()))

	for _, section := range profile.Sections() {
		t.Run(string(section), func(t *testing.T) {
			svc, _, id := setup(t)
			in := payload(t, sectionPayloads[section])

			p, err := svc.Update(context.Background(), section, id, in)
			require.NoError(t, err)

			raw, err := json.Marshal(response.FromProfile(p))
			require.NoError(t, err)
			var wire map[string]any
			require.NoError(t, json.Unmarshal(raw, &wire))
			containsJSON(t, in, wire[string(section)], string(section))
		})
	}
}
