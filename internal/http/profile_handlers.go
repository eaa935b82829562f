package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/response"
)

// sectionRoute binds a URL to a section. A non-empty key means the payload is
// wrapped as {"<key>": ...}; otherwise the whole body is the payload.
type sectionRoute struct {
	path    string
	section profile.Section
	key     string
}

var sectionRoutes = []sectionRoute{
	{"personal_info", profile.SectionPersonalInfo, ""},
	{"academic_info", profile.SectionAcademic, "academics"},
	{"project_info", profile.SectionProjects, "projects"},
	{"skill_info", profile.SectionSkills, "skills"},
	{"workex_info", profile.SectionWorkExperience, "work_experience"},
	{"certification_info", profile.SectionCertifications, "certifications"},
	{"achievement_info", profile.SectionAchievements, "achievements"},
	{"publication_info", profile.SectionPublications, "publications"},
	{"socials", profile.SectionSocials, ""},
}

// UpdateSection godoc
// @Summary Replace one section of a profile
// @Description Paths: personal_info, academic_info, project_info, skill_info, workex_info,
// @Description certification_info, achievement_info, publication_info, socials.
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "profile id"
// @Param section path string true "section path"
// @Param payload body object true "section payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/profile/{id}/{section} [post]
func (h *Handler) UpdateSection(route sectionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body any
		if err := c.ShouldBindJSON(&body); err != nil {
			h.badJSON(c)
			return
		}
		payload := body
		if route.key != "" {
			obj, _ := body.(map[string]any)
			payload = obj[route.key]
		}

		p, err := h.Profiles.Update(c.Request.Context(), route.section, c.Param("id"), payload)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(
			profile.SuccessMessage(route.section),
			response.ProfileData(response.FromProfile(p)),
		))
	}
}

// GetProfile godoc
// @Summary Full profile
// @Tags profile
// @Produce json
// @Param id path string true "profile id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/profile/{id}/getprofile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Profile fetched successfully.", response.ProfileData(response.FromProfile(p))))
}

// ListProfiles godoc
// @Summary Every profile, without credentials
// @Tags profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/profile/profiles [get]
func (h *Handler) ListProfiles(c *gin.Context) {
	ps, err := h.Profiles.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Profiles fetched successfully.", gin.H{"profiles": response.FromProfiles(ps)}))
}
