package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/frantai/folio/pkg/profile"
)

// Responder produces the assistant's answer to a question.
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
}

// ResponderFunc adapts a function to a Responder.
type ResponderFunc func(ctx context.Context, question string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// ScriptedResponder answers from the profile by keyword.
type ScriptedResponder struct {
	profile *profile.Profile
}

// NewScriptedResponder returns a ScriptedResponder over p.
func NewScriptedResponder(p *profile.Profile) *ScriptedResponder {
	return &ScriptedResponder{profile: p}
}

func (r *ScriptedResponder) Respond(_ context.Context, question string) (string, error) {
	q := strings.ToLower(question)
	p := r.profile

	name := "this person"
	if p.Basics != nil && p.Basics.FullName != "" {
		name = p.Basics.FullName
	}

	switch {
	case containsAny(q, "experience", "work", "job", "company", "career"):
		if len(p.Experience) == 0 {
			return fmt.Sprintf("%s has not listed any work experience yet.", name), nil
		}
		parts := make([]string, 0, len(p.Experience))
		for _, e := range p.Experience {
			parts = append(parts, fmt.Sprintf("%s at %s", e.Position, e.CompanyName))
		}
		return fmt.Sprintf("%s has worked as %s.", name, strings.Join(parts, "; ")), nil

	case containsAny(q, "skill", "technolog", "stack", "language"):
		var names []string
		for _, c := range p.Skills {
			for _, s := range c.Skills {
				names = append(names, s.Name)
			}
		}
		if len(names) == 0 {
			return fmt.Sprintf("%s has not listed any skills yet.", name), nil
		}
		return fmt.Sprintf("%s works with %s.", name, strings.Join(names, ", ")), nil

	case containsAny(q, "project", "built", "portfolio"):
		if len(p.Projects) == 0 {
			return fmt.Sprintf("%s has not listed any projects yet.", name), nil
		}
		names := make([]string, 0, len(p.Projects))
		for _, pr := range p.Projects {
			names = append(names, pr.Name)
		}
		return fmt.Sprintf("Projects by %s include %s.", name, strings.Join(names, ", ")), nil

	case containsAny(q, "education", "study", "studied", "degree", "university"):
		if len(p.Education) == 0 {
			return fmt.Sprintf("%s has not listed any education yet.", name), nil
		}
		parts := make([]string, 0, len(p.Education))
		for _, e := range p.Education {
			parts = append(parts, strings.TrimSpace(e.Degree+" at "+e.Institution))
		}
		return fmt.Sprintf("%s studied %s.", name, strings.Join(parts, "; ")), nil
	}

	if p.Basics != nil && p.Basics.Summary != "" {
		return fmt.Sprintf("%s. %s Ask about experience, skills, projects or education.", name, p.Basics.Summary), nil
	}
	return fmt.Sprintf("I can tell you about %s's experience, skills, projects or education.", name), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// splitTokens breaks an answer into word-sized tokens that concatenate
// back to the answer.
func splitTokens(answer string) []string {
	var tokens []string
	for _, tok := range strings.SplitAfter(answer, " ") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
