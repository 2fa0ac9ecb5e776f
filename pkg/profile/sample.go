package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Load reads a profile document from a JSON file and sorts it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	p := &Profile{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	Sort(p)

	return p, nil
}

// Sample returns the built-in profile served by the preview server when no
// fixture file is configured.
func Sample() *Profile {
	years := func(f float64) *float64 { return &f }
	date := func(y int, m time.Month, d int) *Date {
		v := NewDate(y, m, d)
		return &v
	}

	p := &Profile{
		Basics: &Basics{
			ID:        1,
			FullName:  "Alex Doe",
			JobTitle:  "Backend Engineer",
			Location:  "Lisbon, Portugal",
			Email:     "alex@example.com",
			GitHubURL: "https://github.com/alexdoe",
			Summary:   "Backend engineer building streaming APIs and developer tooling.",
		},
		Experience: []Experience{
			{
				ID:           2,
				CompanyName:  "Streamline",
				Position:     "Senior Engineer",
				StartDate:    NewDate(2022, time.March, 1),
				IsCurrent:    true,
				Description:  "Owns the event ingestion pipeline.",
				Achievements: []string{"Cut p99 ingest latency by 40%"},
				Technologies: []string{"Go", "PostgreSQL", "Kafka"},
				OrderIndex:   0,
			},
			{
				ID:           1,
				CompanyName:  "Acme Corp",
				Position:     "Software Engineer",
				StartDate:    NewDate(2019, time.June, 1),
				EndDate:      date(2022, time.February, 28),
				Technologies: []string{"Python", "FastAPI"},
				OrderIndex:   1,
			},
		},
		Skills: []SkillCategory{
			{
				ID:   1,
				Name: "Languages",
				Skills: []Skill{
					{ID: 1, CategoryID: 1, Name: "Go", ProficiencyLevel: ProficiencyExpert, YearsOfExperience: years(6)},
					{ID: 2, CategoryID: 1, Name: "Python", ProficiencyLevel: ProficiencyAdvanced, YearsOfExperience: years(4.5), OrderIndex: 1},
				},
			},
		},
		Projects: []Project{
			{
				ID:               1,
				Name:             "folio",
				ShortDescription: "Terminal client for this portfolio.",
				Technologies:     []string{"Go"},
				GitHubURL:        "https://github.com/alexdoe/folio",
				IsFeatured:       true,
			},
		},
		Education: []Education{
			{
				ID:           1,
				Institution:  "University of Lisbon",
				Degree:       "MSc",
				FieldOfStudy: "Computer Science",
				StartDate:    date(2014, time.September, 1),
				EndDate:      date(2019, time.July, 1),
			},
		},
		Languages: []Language{
			{ID: 1, Name: "English", Proficiency: LanguageFluent},
			{ID: 2, Name: "Portuguese", Proficiency: LanguageNative, OrderIndex: 1},
		},
	}
	Sort(p)

	return p
}
