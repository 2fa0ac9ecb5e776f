// Package profile holds the resume document served by the portfolio backend.
package profile

import (
	"cmp"
	"slices"
)

// ProficiencyLevel grades a skill.
type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
	ProficiencyExpert       ProficiencyLevel = "expert"
)

// LanguageProficiency grades a spoken language.
type LanguageProficiency string

const (
	LanguageNative       LanguageProficiency = "native"
	LanguageFluent       LanguageProficiency = "fluent"
	LanguageProfessional LanguageProficiency = "professional"
	LanguageIntermediate LanguageProficiency = "intermediate"
	LanguageBasic        LanguageProficiency = "basic"
)

// Profile is the complete resume document.
type Profile struct {
	Basics         *Basics         `json:"basics"`
	Experience     []Experience    `json:"experience"`
	Skills         []SkillCategory `json:"skills"`
	Projects       []Project       `json:"projects"`
	Education      []Education     `json:"education"`
	Languages      []Language      `json:"languages"`
	Certifications []Certification `json:"certifications"`
}

type Basics struct {
	ID          int    `json:"id"`
	FullName    string `json:"full_name"`
	JobTitle    string `json:"job_title,omitempty"`
	Location    string `json:"location,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	GitHubURL   string `json:"github_url,omitempty"`
	WebsiteURL  string `json:"website_url,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type Experience struct {
	ID           int      `json:"id"`
	CompanyName  string   `json:"company_name"`
	Position     string   `json:"position"`
	Location     string   `json:"location,omitempty"`
	StartDate    Date     `json:"start_date"`
	EndDate      *Date    `json:"end_date,omitempty"`
	IsCurrent    bool     `json:"is_current"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	OrderIndex   int      `json:"order_index"`
}

type SkillCategory struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	OrderIndex int     `json:"order_index"`
	Skills     []Skill `json:"skills"`
}

type Skill struct {
	ID                int              `json:"id"`
	CategoryID        int              `json:"category_id"`
	Name              string           `json:"name"`
	ProficiencyLevel  ProficiencyLevel `json:"proficiency_level,omitempty"`
	YearsOfExperience *float64         `json:"years_of_experience,omitempty"`
	OrderIndex        int              `json:"order_index"`
}

type Project struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description,omitempty"`
	FullDescription  string   `json:"full_description,omitempty"`
	Role             string   `json:"role,omitempty"`
	StartDate        *Date    `json:"start_date,omitempty"`
	EndDate          *Date    `json:"end_date,omitempty"`
	Technologies     []string `json:"technologies,omitempty"`
	ProjectURL       string   `json:"project_url,omitempty"`
	GitHubURL        string   `json:"github_url,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	Highlights       []string `json:"highlights,omitempty"`
	OrderIndex       int      `json:"order_index"`
	IsFeatured       bool     `json:"is_featured"`
}

type Education struct {
	ID           int    `json:"id"`
	Institution  string `json:"institution"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	Location     string `json:"location,omitempty"`
	StartDate    *Date  `json:"start_date,omitempty"`
	EndDate      *Date  `json:"end_date,omitempty"`
	Grade        string `json:"grade,omitempty"`
	Description  string `json:"description,omitempty"`
	OrderIndex   int    `json:"order_index"`
}

type Language struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Proficiency LanguageProficiency `json:"proficiency,omitempty"`
	OrderIndex  int                 `json:"order_index"`
}

type Certification struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	IssuingOrganization string `json:"issuing_organization,omitempty"`
	IssueDate           *Date  `json:"issue_date,omitempty"`
	ExpiryDate          *Date  `json:"expiry_date,omitempty"`
	CredentialID        string `json:"credential_id,omitempty"`
	CredentialURL       string `json:"credential_url,omitempty"`
	OrderIndex          int    `json:"order_index"`
}

// Sort puts every section in the order the backend serves it: by order
// index, with featured projects first. The sort is stable so equal indexes
// keep their document order.
func Sort(p *Profile) {
	if p == nil {
		return
	}

	slices.SortStableFunc(p.Experience, func(a, b Experience) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	slices.SortStableFunc(p.Skills, func(a, b SkillCategory) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	for i := range p.Skills {
		slices.SortStableFunc(p.Skills[i].Skills, func(a, b Skill) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	}
	slices.SortStableFunc(p.Projects, func(a, b Project) int {
		if a.IsFeatured != b.IsFeatured {
			if a.IsFeatured {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	slices.SortStableFunc(p.Education, func(a, b Education) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	slices.SortStableFunc(p.Languages, func(a, b Language) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	slices.SortStableFunc(p.Certifications, func(a, b Certification) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
}
