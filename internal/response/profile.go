// Package response shapes stored profiles and errors into the JSON the API returns.
package response

import (
	"time"

	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
)

// Profile is the wire form of domain.Profile. It has no credential fields.
type Profile struct {
	ID             string           `json:"id"`
	Username       string           `json:"username,omitempty"`
	AuthProvider   string           `json:"authProvider"`
	PersonalInfo   *PersonalInfo    `json:"personalInfo"`
	Academic       []Academic       `json:"academic"`
	Projects       []Project        `json:"projects"`
	WorkExperience []WorkExperience `json:"workExperience"`
	Certifications []Certification  `json:"certifications"`
	Achievements   []Achievement    `json:"achievements"`
	Publications   []Publication    `json:"publications"`
	Skills         []string         `json:"skills"`
	Socials        *domain.Socials  `json:"socials"`
	Version        int64            `json:"version"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type PersonalInfo struct {
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	DateOfBirth string          `json:"dateOfBirth"`
	Address     *domain.Address `json:"address"`
	Resume      string          `json:"resume"`
}

type Academic struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Description  string `json:"description"`
	Grade        string `json:"grade"`
}

type Project struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	TechnologiesUsed []string `json:"technologiesUsed"`
	ProjectLink      string   `json:"projectLink"`
	IsOpenSource     bool     `json:"isOpenSource"`
}

type WorkExperience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"isCurrent"`
}

type Certification struct {
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuingOrganization"`
	IssueDate           string `json:"issueDate"`
	ExpirationDate      string `json:"expirationDate"`
	CredentialID        string `json:"credentialId"`
	CredentialURL       string `json:"credentialURL"`
}

type Achievement struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Issuer      string `json:"issuer"`
}

type Publication struct {
	Title           string `json:"title"`
	Publisher       string `json:"publisher"`
	PublicationDate string `json:"publicationDate"`
	Description     string `json:"description"`
	Link            string `json:"link"`
}

func FromProfile(p *domain.Profile) Profile {
	out := Profile{
		ID:             codec.RenderHandle(p.ID),
		Username:       p.Username,
		AuthProvider:   string(p.AuthProvider),
		Academic:       mapList(p.Academic, academic),
		Projects:       mapList(p.Projects, project),
		WorkExperience: mapList(p.WorkExperience, workExperience),
		Certifications: mapList(p.Certifications, certification),
		Achievements:   mapList(p.Achievements, achievement),
		Publications:   mapList(p.Publications, publication),
		Skills:         orEmpty(p.Skills),
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if pi := p.PersonalInfo; pi != nil {
		out.PersonalInfo = &PersonalInfo{
			FirstName:   pi.FirstName,
			LastName:    pi.LastName,
			Email:       pi.Email,
			Phone:       pi.Phone,
			DateOfBirth: optDate(pi.DateOfBirth),
			Address:     pi.Address,
			Resume:      pi.Resume,
		}
	}
	if p.Socials != nil {
		s := *p.Socials
		out.Socials = &s
	}
	return out
}

func FromProfiles(ps []domain.Profile) []Profile {
	out := make([]Profile, 0, len(ps))
	for i := range ps {
		out = append(out, FromProfile(&ps[i]))
	}
	return out
}

func academic(a domain.Academic) Academic {
	return Academic{
		Institution:  a.Institution,
		Degree:       a.Degree,
		FieldOfStudy: a.FieldOfStudy,
		StartDate:    codec.RenderDate(a.StartDate),
		EndDate:      optDate(a.EndDate),
		Description:  a.Description,
		Grade:        a.Grade,
	}
}

func project(p domain.Project) Project {
	return Project{
		Title:            p.Title,
		Description:      p.Description,
		StartDate:        codec.RenderDate(p.StartDate),
		EndDate:          optDate(p.EndDate),
		TechnologiesUsed: orEmpty(p.TechnologiesUsed),
		ProjectLink:      p.ProjectLink,
		IsOpenSource:     p.IsOpenSource,
	}
}

func workExperience(w domain.WorkExperience) WorkExperience {
	return WorkExperience{
		Company:     w.Company,
		Position:    w.Position,
		StartDate:   codec.RenderDate(w.StartDate),
		EndDate:     optDate(w.EndDate),
		Description: w.Description,
		IsCurrent:   w.IsCurrent,
	}
}

func certification(c domain.Certification) Certification {
	return Certification{
		Name:                c.Name,
		IssuingOrganization: c.IssuingOrganization,
		IssueDate:           codec.RenderDate(c.IssueDate),
		ExpirationDate:      optDate(c.ExpirationDate),
		CredentialID:        c.CredentialID,
		CredentialURL:       c.CredentialURL,
	}
}

func achievement(a domain.Achievement) Achievement {
	return Achievement{
		Title:       a.Title,
		Date:        codec.RenderDate(a.Date),
		Description: a.Description,
		Issuer:      a.Issuer,
	}
}

func publication(p domain.Publication) Publication {
	return Publication{
		Title:           p.Title,
		Publisher:       p.Publisher,
		PublicationDate: codec.RenderDate(p.PublicationDate),
		Description:     p.Description,
		Link:            p.Link,
	}
}

func mapList[S, D any](in []S, f func(S) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return codec.RenderDate(*t)
}
