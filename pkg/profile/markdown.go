package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Markdown renders p as a Markdown document, one section per heading.
// Sections are rendered in the order they are held; call Sort first to
// get the served ordering. Empty sections are omitted.
func Markdown(p *Profile) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	writeBasics(&b, p.Basics)
	writeExperience(&b, p.Experience)
	writeSkills(&b, p.Skills)
	writeProjects(&b, p.Projects)
	writeEducation(&b, p.Education)
	writeLanguages(&b, p.Languages)
	writeCertifications(&b, p.Certifications)

	return strings.TrimSpace(b.String()) + "\n"
}

func writeBasics(b *strings.Builder, basics *Basics) {
	if basics == nil {
		return
	}

	fmt.Fprintf(b, "# %s\n\n", basics.FullName)

	headline := joinNonEmpty(" · ", basics.JobTitle, basics.Location)
	if headline != "" {
		fmt.Fprintf(b, "**%s**\n\n", headline)
	}
	if basics.Summary != "" {
		fmt.Fprintf(b, "%s\n\n", basics.Summary)
	}
	if basics.Bio != "" {
		fmt.Fprintf(b, "%s\n\n", basics.Bio)
	}

	contacts := []struct{ label, value string }{
		{"Email", basics.Email},
		{"Phone", basics.Phone},
		{"LinkedIn", basics.LinkedInURL},
		{"GitHub", basics.GitHubURL},
		{"Website", basics.WebsiteURL},
	}
	wrote := false
	for _, c := range contacts {
		if c.value == "" {
			continue
		}
		fmt.Fprintf(b, "- %s: %s\n", c.label, c.value)
		wrote = true
	}
	if wrote {
		b.WriteString("\n")
	}
}

func writeExperience(b *strings.Builder, experience []Experience) {
	if len(experience) == 0 {
		return
	}

	b.WriteString("## Experience\n\n")
	for _, e := range experience {
		fmt.Fprintf(b, "### %s at %s\n\n", e.Position, e.CompanyName)
		fmt.Fprintf(b, "_%s_\n\n", joinNonEmpty(" · ", period(&e.StartDate, e.EndDate, e.IsCurrent), e.Location))
		if e.Description != "" {
			fmt.Fprintf(b, "%s\n\n", e.Description)
		}
		writeBullets(b, e.Achievements)
		writeTechnologies(b, e.Technologies)
	}
}

func writeSkills(b *strings.Builder, categories []SkillCategory) {
	if len(categories) == 0 {
		return
	}

	b.WriteString("## Skills\n\n")
	for _, c := range categories {
		names := make([]string, 0, len(c.Skills))
		for _, s := range c.Skills {
			names = append(names, skillLabel(s))
		}
		fmt.Fprintf(b, "- **%s**: %s\n", c.Name, strings.Join(names, ", "))
	}
	b.WriteString("\n")
}

func skillLabel(s Skill) string {
	var details []string
	if s.ProficiencyLevel != "" {
		details = append(details, string(s.ProficiencyLevel))
	}
	if s.YearsOfExperience != nil {
		details = append(details, strconv.FormatFloat(*s.YearsOfExperience, 'f', -1, 64)+"y")
	}
	if len(details) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, strings.Join(details, ", "))
}

func writeProjects(b *strings.Builder, projects []Project) {
	if len(projects) == 0 {
		return
	}

	b.WriteString("## Projects\n\n")
	for _, p := range projects {
		title := p.Name
		if p.IsFeatured {
			title += " ★"
		}
		fmt.Fprintf(b, "### %s\n\n", title)

		meta := joinNonEmpty(" · ", p.Role, period(p.StartDate, p.EndDate, false))
		if meta != "" {
			fmt.Fprintf(b, "_%s_\n\n", meta)
		}
		if p.ShortDescription != "" {
			fmt.Fprintf(b, "%s\n\n", p.ShortDescription)
		}
		if p.FullDescription != "" {
			fmt.Fprintf(b, "%s\n\n", p.FullDescription)
		}
		writeBullets(b, p.Highlights)
		writeTechnologies(b, p.Technologies)

		links := joinNonEmpty(" · ", p.ProjectURL, p.GitHubURL)
		if links != "" {
			fmt.Fprintf(b, "%s\n\n", links)
		}
	}
}

func writeEducation(b *strings.Builder, education []Education) {
	if len(education) == 0 {
		return
	}

	b.WriteString("## Education\n\n")
	for _, e := range education {
		fmt.Fprintf(b, "### %s\n\n", e.Institution)

		degree := joinNonEmpty(", ", e.Degree, e.FieldOfStudy)
		meta := joinNonEmpty(" · ", degree, period(e.StartDate, e.EndDate, false), e.Location, e.Grade)
		if meta != "" {
			fmt.Fprintf(b, "_%s_\n\n", meta)
		}
		if e.Description != "" {
			fmt.Fprintf(b, "%s\n\n", e.Description)
		}
	}
}

func writeLanguages(b *strings.Builder, languages []Language) {
	if len(languages) == 0 {
		return
	}

	b.WriteString("## Languages\n\n")
	for _, l := range languages {
		if l.Proficiency == "" {
			fmt.Fprintf(b, "- %s\n", l.Name)
			continue
		}
		fmt.Fprintf(b, "- %s (%s)\n", l.Name, l.Proficiency)
	}
	b.WriteString("\n")
}

func writeCertifications(b *strings.Builder, certs []Certification) {
	if len(certs) == 0 {
		return
	}

	b.WriteString("## Certifications\n\n")
	for _, c := range certs {
		line := c.Name
		if c.IssuingOrganization != "" {
			line += ", " + c.IssuingOrganization
		}
		if c.IssueDate != nil {
			line += " (" + c.IssueDate.MonthYear() + ")"
		}
		if c.CredentialURL != "" {
			line += " " + c.CredentialURL
		}
		fmt.Fprintf(b, "- %s\n", line)
	}
	b.WriteString("\n")
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeTechnologies(b *strings.Builder, tech []string) {
	if len(tech) == 0 {
		return
	}
	fmt.Fprintf(b, "Technologies: %s\n\n", strings.Join(tech, ", "))
}

// period formats a date range. A nil start yields an empty string.
func period(start, end *Date, current bool) string {
	if start == nil || start.IsZero() {
		return ""
	}

	switch {
	case current:
		return start.MonthYear() + " - Present"
	case end != nil:
		return start.MonthYear() + " - " + end.MonthYear()
	default:
		return start.MonthYear()
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
