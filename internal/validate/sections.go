package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/domain"
)

func (v *Validator) Academic(raw any) ([]domain.Academic, []string) {
	return validateList(raw, listRule[domain.Academic]{
		shapeErr: "Academics data must be a non-empty array.",
		label:    "Record",
		ident:    "institution",
		required: []string{"institution", "degree", "fieldOfStudy", "startDate"},
		texts:    []string{"institution", "degree", "fieldOfStudy", "description", "grade"},
		dates:    []string{"startDate", "endDate"},
		check: func(r record, d parsed, p *problems) {
			if !endAfterStart(d, "startDate", "endDate") {
				p.add("End date must be after start date for %s.", r.str("institution"))
			}
			if g := r.str("grade"); g != "" && !gradeRe.MatchString(g) {
				p.add("Invalid grade format for %s.", r.str("institution"))
			}
		},
		build: func(r record, d parsed) domain.Academic {
			return domain.Academic{
				Institution:  r.str("institution"),
				Degree:       r.str("degree"),
				FieldOfStudy: r.str("fieldOfStudy"),
				StartDate:    d["startDate"],
				EndDate:      d.ptr("endDate"),
				Description:  r.str("description"),
				Grade:        r.str("grade"),
			}
		},
	})
}

func (v *Validator) Projects(raw any) ([]domain.Project, []string) {
	return validateList(raw, listRule[domain.Project]{
		shapeErr: "Projects data must be a non-empty array.",
		label:    "Project",
		ident:    "title",
		required: []string{"title", "description", "startDate"},
		texts:    []string{"title", "description", "projectLink"},
		bools:    []string{"isOpenSource"},
		dates:    []string{"startDate", "endDate"},
		check: func(r record, d parsed, p *problems) {
			title := r.str("title")
			if !endAfterStart(d, "startDate", "endDate") {
				p.add("End date must be after start date for %s.", title)
			}
			if link := r.str("projectLink"); link != "" && !linkRe.MatchString(link) {
				p.add("Invalid project link format for %s.", title)
			}
			if r.present("technologiesUsed") {
				if _, ok := stringList(r["technologiesUsed"]); !ok {
					p.add("Technologies used must be an array for %s.", title)
				}
			}
		},
		build: func(r record, d parsed) domain.Project {
			tech, _ := stringList(r["technologiesUsed"])
			if tech == nil {
				tech = []string{}
			}
			return domain.Project{
				Title:            r.str("title"),
				Description:      r.str("description"),
				StartDate:        d["startDate"],
				EndDate:          d.ptr("endDate"),
				TechnologiesUsed: tech,
				ProjectLink:      r.str("projectLink"),
				IsOpenSource:     r.boolean("isOpenSource"),
			}
		},
	})
}

func (v *Validator) WorkExperience(raw any) ([]domain.WorkExperience, []string) {
	return validateList(raw, listRule[domain.WorkExperience]{
		shapeErr: "Work experience must be a non-empty array of objects.",
		label:    "Experience",
		ident:    "company",
		required: []string{"company", "position", "startDate", "isCurrent"},
		texts:    []string{"company", "position", "description"},
		bools:    []string{"isCurrent"},
		dates:    []string{"startDate", "endDate"},
		check: func(r record, d parsed, p *problems) {
			if !r.present("isCurrent") || !isBool(r["isCurrent"]) {
				return
			}
			switch {
			case r.boolean("isCurrent") && !r.blank("endDate"):
				p.add("End date should not be provided when isCurrent is true.")
			case !r.boolean("isCurrent") && r.blank("endDate"):
				p.add("End date is required when isCurrent is false.")
			case !r.boolean("isCurrent") && !endAfterStart(d, "startDate", "endDate"):
				p.add("End date must be after start date when not currently employed.")
			}
		},
		build: func(r record, d parsed) domain.WorkExperience {
			return domain.WorkExperience{
				Company:     r.str("company"),
				Position:    r.str("position"),
				StartDate:   d["startDate"],
				EndDate:     d.ptr("endDate"),
				Description: r.str("description"),
				IsCurrent:   r.boolean("isCurrent"),
			}
		},
	})
}

func (v *Validator) Certifications(raw any) ([]domain.Certification, []string) {
	return validateList(raw, listRule[domain.Certification]{
		shapeErr: "Certifications must be a non-empty array.",
		label:    "Certification",
		ident:    "name",
		required: []string{"name", "issuingOrganization", "issueDate"},
		texts:    []string{"name", "issuingOrganization", "credentialId", "credentialURL"},
		dates:    []string{"issueDate", "expirationDate"},
		check: func(r record, d parsed, p *problems) {
			if !endAfterStart(d, "issueDate", "expirationDate") {
				p.add("Expiration date must be after issue date.")
			}
			if u := r.str("credentialURL"); u != "" && !hasHTTPScheme(u) {
				p.add("Credential URL must start with http:// or https://")
			}
		},
		build: func(r record, d parsed) domain.Certification {
			return domain.Certification{
				Name:                r.str("name"),
				IssuingOrganization: r.str("issuingOrganization"),
				IssueDate:           d["issueDate"],
				ExpirationDate:      d.ptr("expirationDate"),
				CredentialID:        r.str("credentialId"),
				CredentialURL:       r.str("credentialURL"),
			}
		},
	})
}

func (v *Validator) Achievements(raw any) ([]domain.Achievement, []string) {
	today := v.today()
	return validateList(raw, listRule[domain.Achievement]{
		shapeErr: "Achievements must be a non-empty array.",
		label:    "Achievement",
		ident:    "title",
		required: []string{"title", "date"},
		texts:    []string{"title", "description", "issuer"},
		dates:    []string{"date"},
		check: func(r record, d parsed, p *problems) {
			if t, ok := d["date"]; ok && codec.CompareDates(t, today) == codec.After {
				p.add("Achievement date cannot be in the future.")
			}
		},
		build: func(r record, d parsed) domain.Achievement {
			return domain.Achievement{
				Title:       r.str("title"),
				Date:        d["date"],
				Description: r.str("description"),
				Issuer:      r.str("issuer"),
			}
		},
	})
}

func (v *Validator) Publications(raw any) ([]domain.Publication, []string) {
	today := v.today()
	return validateList(raw, listRule[domain.Publication]{
		shapeErr: "Publications must be a non-empty array.",
		label:    "Publication",
		ident:    "title",
		required: []string{"title", "publisher", "publicationDate"},
		texts:    []string{"title", "publisher", "description", "link"},
		dates:    []string{"publicationDate"},
		check: func(r record, d parsed, p *problems) {
			if t, ok := d["publicationDate"]; ok && codec.CompareDates(t, today) == codec.After {
				p.add("Publication date cannot be in the future.")
			}
			if l := r.str("link"); l != "" && !hasHTTPScheme(l) {
				p.add("Publication link must start with http:// or https://")
			}
		},
		build: func(r record, d parsed) domain.Publication {
			return domain.Publication{
				Title:           r.str("title"),
				Publisher:       r.str("publisher"),
				PublicationDate: d["publicationDate"],
				Description:     r.str("description"),
				Link:            r.str("link"),
			}
		},
	})
}

// Skills returns the trimmed skill names.
func (v *Validator) Skills(raw any) ([]string, []string) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, []string{"Skills must be a non-empty array of strings."}
	}
	var errs []string
	out := make([]string, 0, len(items))
	for i, it := range items {
		s, ok := it.(string)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			errs = append(errs, fmt.Sprintf("Skill #%d must be a non-empty string.", i+1))
			continue
		}
		out = append(out, s)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (v *Validator) PersonalInfo(raw any) (domain.PersonalInfo, []string) {
	r, ok := asRecord(raw)
	if !ok {
		return domain.PersonalInfo{}, []string{"Personal info must be an object."}
	}
	var p problems
	if len(r.missing([]string{"firstName", "lastName", "email", "phone"})) > 0 {
		p.add("First name, last name, email, and phone are required.")
	}
	for _, f := range []string{"firstName", "lastName", "email", "phone", "resume"} {
		if r.present(f) && !isString(r[f]) {
			p.add("%s must be a string.", f)
		}
	}
	if e := r.str("email"); e != "" && !emailRe.MatchString(strings.TrimSpace(e)) {
		p.add("Invalid email format.")
	}

	var dob *time.Time
	if !r.blank("dateOfBirth") {
		t, err := codec.ParseDate(r.str("dateOfBirth"))
		switch {
		case err != nil:
			p.add("Invalid date format. Use YYYY-MM-DD.")
		case codec.CompareDates(t, v.today()) != codec.Before:
			p.add("Invalid date of birth. It must be in the past.")
		default:
			dob = &t
		}
	}

	var addr *domain.Address
	if r.present("address") {
		a, ok := asRecord(r["address"])
		if !ok {
			p.add("Address must be an object.")
		} else {
			for _, f := range []string{"street", "city", "state", "country", "zipCode"} {
				if a.present(f) && !isString(a[f]) {
					p.add("address.%s must be a string.", f)
				}
			}
			addr = &domain.Address{
				Street:  a.str("street"),
				City:    a.str("city"),
				State:   a.str("state"),
				Country: a.str("country"),
				ZipCode: a.str("zipCode"),
			}
		}
	}

	if len(p) > 0 {
		return domain.PersonalInfo{}, p
	}
	out := domain.PersonalInfo{
		FirstName:   r.str("firstName"),
		LastName:    r.str("lastName"),
		Email:       strings.TrimSpace(r.str("email")),
		Phone:       r.str("phone"),
		DateOfBirth: dob,
		Address:     addr,
		Resume:      r.str("resume"),
	}
	return out, nil
}

// NormalizeEmail is the form provider emails are compared in.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

var socialKeys = []string{"linkedIn", "github", "twitter", "website", "medium", "stackOverflow", "leetcode"}

// Socials ignores unknown platforms. A blank value clears its platform, but at
// least one platform must carry a link.
func (v *Validator) Socials(raw any) (domain.SocialsPatch, []string) {
	r, ok := asRecord(raw)
	if !ok {
		return domain.SocialsPatch{}, []string{"Social links must be an object."}
	}
	var p problems
	values := map[string]*string{}
	var cleared []string
	for _, k := range socialKeys {
		if !r.present(k) {
			continue
		}
		s, ok := r[k].(string)
		if !ok {
			p.add("%s must be a string.", k)
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			cleared = append(cleared, k)
			continue
		}
		if !urlRe.MatchString(s) {
			p.add("Invalid URL format for %s", k)
			continue
		}
		values[k] = &s
	}
	if len(p) == 0 && len(values) == 0 {
		p.add("At least one social link is required.")
	}
	if len(p) > 0 {
		return domain.SocialsPatch{}, p
	}
	for _, k := range cleared {
		empty := ""
		values[k] = &empty
	}
	return domain.SocialsPatch{
		LinkedIn:      values["linkedIn"],
		Github:        values["github"],
		Twitter:       values["twitter"],
		Website:       values["website"],
		Medium:        values["medium"],
		StackOverflow: values["stackOverflow"],
		Leetcode:      values["leetcode"],
	}, nil
}
