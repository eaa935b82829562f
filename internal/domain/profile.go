package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthProvider string

const (
	ProviderLocal    AuthProvider = "local"
	ProviderFirebase AuthProvider = "firebase"
)

// Profile is the aggregate root. Every section lives embedded in the same document.
type Profile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"            json:"id"`
	Username       string             `bson:"username,omitempty"       json:"username"`
	Password       string             `bson:"password,omitempty"       json:"-"`
	AuthProvider   AuthProvider       `bson:"authProvider"             json:"authProvider"`
	ExternalAuthID string             `bson:"externalAuthId,omitempty" json:"-"`

	PersonalInfo   *PersonalInfo    `bson:"personalInfo,omitempty" json:"personalInfo"`
	Academic       []Academic       `bson:"academic"               json:"academic"`
	Projects       []Project        `bson:"projects"               json:"projects"`
	WorkExperience []WorkExperience `bson:"workExperience"         json:"workExperience"`
	Certifications []Certification  `bson:"certifications"         json:"certifications"`
	Achievements   []Achievement    `bson:"achievements"           json:"achievements"`
	Publications   []Publication    `bson:"publications"           json:"publications"`
	Skills         []string         `bson:"skills"                 json:"skills"`
	Socials        *Socials         `bson:"socials,omitempty"      json:"socials"`

	Version   int64     `bson:"version"   json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewProfile returns an aggregate with every list section initialized empty,
// so the stored document never holds null arrays.
func NewProfile(username string, provider AuthProvider, now time.Time) *Profile {
	now = now.UTC()
	return &Profile{
		Username:       username,
		AuthProvider:   provider,
		Academic:       []Academic{},
		Projects:       []Project{},
		WorkExperience: []WorkExperience{},
		Certifications: []Certification{},
		Achievements:   []Achievement{},
		Publications:   []Publication{},
		Skills:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasPassword reports whether the profile can sign in with local credentials.
func (p *Profile) HasPassword() bool {
	return p.AuthProvider == ProviderLocal && p.Password != ""
}

type Address struct {
	Street  string `bson:"street"  json:"street"`
	City    string `bson:"city"    json:"city"`
	State   string `bson:"state"   json:"state"`
	Country string `bson:"country" json:"country"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
}

type PersonalInfo struct {
	FirstName   string     `bson:"firstName"             json:"firstName"`
	LastName    string     `bson:"lastName"              json:"lastName"`
	Email       string     `bson:"email"                 json:"email"`
	Phone       string     `bson:"phone"                 json:"phone"`
	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth"`
	Address     *Address   `bson:"address,omitempty"     json:"address"`
	Resume      string     `bson:"resume"                json:"resume"`
}

type Academic struct {
	Institution  string     `bson:"institution"       json:"institution"`
	Degree       string     `bson:"degree"            json:"degree"`
	FieldOfStudy string     `bson:"fieldOfStudy"      json:"fieldOfStudy"`
	StartDate    time.Time  `bson:"startDate"         json:"startDate"`
	EndDate      *time.Time `bson:"endDate,omitempty" json:"endDate"`
	Description  string     `bson:"description"       json:"description"`
	Grade        string     `bson:"grade"             json:"grade"`
}

type Project struct {
	Title            string     `bson:"title"             json:"title"`
	Description      string     `bson:"description"       json:"description"`
	StartDate        time.Time  `bson:"startDate"         json:"startDate"`
	EndDate          *time.Time `bson:"endDate,omitempty" json:"endDate"`
	TechnologiesUsed []string   `bson:"technologiesUsed"  json:"technologiesUsed"`
	ProjectLink      string     `bson:"projectLink"       json:"projectLink"`
	IsOpenSource     bool       `bson:"isOpenSource"      json:"isOpenSource"`
}

type WorkExperience struct {
	Company     string     `bson:"company"           json:"company"`
	Position    string     `bson:"position"          json:"position"`
	StartDate   time.Time  `bson:"startDate"         json:"startDate"`
	EndDate     *time.Time `bson:"endDate,omitempty" json:"endDate"`
	Description string     `bson:"description"       json:"description"`
	IsCurrent   bool       `bson:"isCurrent"         json:"isCurrent"`
}

type Certification struct {
	Name                string     `bson:"name"                     json:"name"`
	IssuingOrganization string     `bson:"issuingOrganization"      json:"issuingOrganization"`
	IssueDate           time.Time  `bson:"issueDate"                json:"issueDate"`
	ExpirationDate      *time.Time `bson:"expirationDate,omitempty" json:"expirationDate"`
	CredentialID        string     `bson:"credentialId"             json:"credentialId"`
	CredentialURL       string     `bson:"credentialURL"            json:"credentialURL"`
}

type Achievement struct {
	Title       string    `bson:"title"       json:"title"`
	Date        time.Time `bson:"date"        json:"date"`
	Description string    `bson:"description" json:"description"`
	Issuer      string    `bson:"issuer"      json:"issuer"`
}

type Publication struct {
	Title           string    `bson:"title"           json:"title"`
	Publisher       string    `bson:"publisher"       json:"publisher"`
	PublicationDate time.Time `bson:"publicationDate" json:"publicationDate"`
	Description     string    `bson:"description"     json:"description"`
	Link            string    `bson:"link"            json:"link"`
}

type Socials struct {
	LinkedIn      string `bson:"linkedIn,omitempty"      json:"linkedIn"`
	Github        string `bson:"github,omitempty"        json:"github"`
	Twitter       string `bson:"twitter,omitempty"       json:"twitter"`
	Website       string `bson:"website,omitempty"       json:"website"`
	Medium        string `bson:"medium,omitempty"        json:"medium"`
	StackOverflow string `bson:"stackOverflow,omitempty" json:"stackOverflow"`
	Leetcode      string `bson:"leetcode,omitempty"      json:"leetcode"`
}

// SocialsPatch holds only the platforms present in an update; nil means untouched.
type SocialsPatch struct {
	LinkedIn      *string
	Github        *string
	Twitter       *string
	Website       *string
	Medium        *string
	StackOverflow *string
	Leetcode      *string
}

// Fields maps the stored key of every present platform to its new value.
func (p SocialsPatch) Fields() map[string]string {
	out := map[string]string{}
	for key, v := range map[string]*string{
		"linkedIn":      p.LinkedIn,
		"github":        p.Github,
		"twitter":       p.Twitter,
		"website":       p.Website,
		"medium":        p.Medium,
		"stackOverflow": p.StackOverflow,
		"leetcode":      p.Leetcode,
	} {
		if v != nil {
			out[key] = *v
		}
	}
	return out
}

// Apply writes the present platforms onto s.
func (p SocialsPatch) Apply(s *Socials) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.LinkedIn, p.LinkedIn)
	set(&s.Github, p.Github)
	set(&s.Twitter, p.Twitter)
	set(&s.Website, p.Website)
	set(&s.Medium, p.Medium)
	set(&s.StackOverflow, p.StackOverflow)
	set(&s.Leetcode, p.Leetcode)
}
