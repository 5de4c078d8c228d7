// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package tools

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var profileYAML []byte

// =============================================================================
// Profile Data Types
// =============================================================================

// Experience is one professional experience entry.
type Experience struct {
	Company      string   `json:"company" yaml:"company"`
	Title        string   `json:"title" yaml:"title"`
	Period       string   `json:"period" yaml:"period"`
	Description  string   `json:"description" yaml:"description"`
	Highlights   []string `json:"highlights" yaml:"highlights"`
	Technologies []string `json:"technologies" yaml:"technologies"`
}

// Skill is a skill category with a proficiency level
// (expert, proficient, or familiar).
type Skill struct {
	Category    string   `json:"category" yaml:"category"`
	Skills      []string `json:"skills" yaml:"skills"`
	Proficiency string   `json:"proficiency" yaml:"proficiency"`
}

// Project is a notable project entry.
type Project struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	Highlights   []string `json:"highlights" yaml:"highlights"`
	URL          string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Profile is the complete profile dataset.
type Profile struct {
	Experiences []Experience `json:"experiences" yaml:"experiences"`
	Skills      []Skill      `json:"skills" yaml:"skills"`
	Projects    []Project    `json:"projects" yaml:"projects"`
}

// ProfessionalExperienceResult is the get_professional_experience payload.
type ProfessionalExperienceResult struct {
	Experiences []Experience `json:"experiences"`
	Summary     string       `json:"summary"`
}

// SkillsResult is the get_skills payload.
type SkillsResult struct {
	Skills  []Skill `json:"skills"`
	Summary string  `json:"summary"`
}

// ProjectsResult is the get_projects payload.
type ProjectsResult struct {
	Projects []Project `json:"projects"`
	Summary  string    `json:"summary"`
}

// LoadProfile parses the embedded profile dataset.
func LoadProfile() (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(profileYAML, &p); err != nil {
		return nil, fmt.Errorf("parse profile dataset: %w", err)
	}
	return &p, nil
}

// =============================================================================
// Lookup Functions
// =============================================================================

// ProfessionalExperience returns the work history with a summary line.
func (p *Profile) ProfessionalExperience() ProfessionalExperienceResult {
	return ProfessionalExperienceResult{
		Experiences: p.Experiences,
		Summary: fmt.Sprintf(
			"George has %d professional experiences spanning AI/ML engineering and full-stack development.",
			len(p.Experiences)),
	}
}

// SkillSet returns the categorized skills with a summary line.
func (p *Profile) SkillSet() SkillsResult {
	return SkillsResult{
		Skills: p.Skills,
		Summary: fmt.Sprintf(
			"George has expertise across %d skill categories, with particular depth in AI/ML engineering and backend development.",
			len(p.Skills)),
	}
}

// NotableProjects returns the project list with a summary line.
func (p *Profile) NotableProjects() ProjectsResult {
	return ProjectsResult{
		Projects: p.Projects,
		Summary: fmt.Sprintf(
			"George has worked on %d notable projects demonstrating production-grade AI systems.",
			len(p.Projects)),
	}
}

// =============================================================================
// Tool Constructors
// =============================================================================

// NewExperienceTool exposes the work history as get_professional_experience.
func NewExperienceTool(p *Profile) Tool {
	return NewFuncTool(
		"get_professional_experience",
		"Get George's professional experience and work history: past roles, responsibilities, and key achievements.",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return p.ProfessionalExperience(), nil
		},
	)
}

// NewSkillsTool exposes the skill categories as get_skills.
func NewSkillsTool(p *Profile) Tool {
	return NewFuncTool(
		"get_skills",
		"Get George's technical skills and proficiencies, categorized with proficiency levels (expert, proficient, familiar).",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return p.SkillSet(), nil
		},
	)
}

// NewProjectsTool exposes notable projects as get_projects.
func NewProjectsTool(p *Profile) Tool {
	return NewFuncTool(
		"get_projects",
		"Get George's notable projects and contributions, including technologies used and key highlights.",
		nil,
		func(ctx context.Context, args map[string]any) (any, error) {
			return p.NotableProjects(), nil
		},
	)
}
