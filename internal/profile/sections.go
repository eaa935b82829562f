package profile

import "github.com/tazhibayda/profile-service/internal/validate"

// Section names double as the stored field of each section.
type Section string

const (
	SectionPersonalInfo   Section = "personalInfo"
	SectionAcademic       Section = "academic"
	SectionProjects       Section = "projects"
	SectionWorkExperience Section = "workExperience"
	SectionCertifications Section = "certifications"
	SectionAchievements   Section = "achievements"
	SectionPublications   Section = "publications"
	SectionSkills         Section = "skills"
	SectionSocials        Section = "socials"
)

type sectionSpec struct {
	message  string
	validate func(v *validate.Validator, raw any) (any, []string)
}

var sections = map[Section]sectionSpec{
	SectionPersonalInfo: {
		message:  "Profile updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.PersonalInfo(raw); return r, p },
	},
	SectionAcademic: {
		message:  "Academic records updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Academic(raw); return r, p },
	},
	SectionProjects: {
		message:  "Projects updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Projects(raw); return r, p },
	},
	SectionWorkExperience: {
		message:  "Work experience updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.WorkExperience(raw); return r, p },
	},
	SectionCertifications: {
		message:  "Certifications updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Certifications(raw); return r, p },
	},
	SectionAchievements: {
		message:  "Achievements updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Achievements(raw); return r, p },
	},
	SectionPublications: {
		message:  "Publications updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Publications(raw); return r, p },
	},
	SectionSkills: {
		message:  "Skills updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Skills(raw); return r, p },
	},
	SectionSocials: {
		message:  "Social links updated successfully.",
		validate: func(v *validate.Validator, raw any) (any, []string) { r, p := v.Socials(raw); return r, p },
	},
}

// SuccessMessage is the confirmation shown after a section update.
func SuccessMessage(s Section) string { return sections[s].message }

// Sections lists every updatable section.
func Sections() []Section {
	return []Section{
		SectionPersonalInfo, SectionAcademic, SectionProjects, SectionWorkExperience,
		SectionCertifications, SectionAchievements, SectionPublications, SectionSkills, SectionSocials,
	}
}
