// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileParsesEmbeddedDataset(t *testing.T) {
	p, err := LoadProfile()
	require.NoError(t, err)

	assert.NotEmpty(t, p.Experiences)
	assert.NotEmpty(t, p.Skills)
	assert.NotEmpty(t, p.Projects)

	for _, s := range p.Skills {
		assert.Contains(t, []string{"expert", "proficient", "familiar"}, s.Proficiency,
			"category %q has unknown proficiency", s.Category)
	}
}

func TestProfessionalExperienceSummaryCountsEntries(t *testing.T) {
	p, err := LoadProfile()
	require.NoError(t, err)

	result := p.ProfessionalExperience()
	assert.Len(t, result.Experiences, len(p.Experiences))
	assert.Contains(t, result.Summary, fmt.Sprintf("%d professional experiences", len(p.Experiences)))
}

func TestProfileToolsReturnStructuredResults(t *testing.T) {
	p, err := LoadProfile()
	require.NoError(t, err)

	ctx := context.Background()

	out, err := NewExperienceTool(p).Call(ctx, nil)
	require.NoError(t, err)
	exp, ok := out.(ProfessionalExperienceResult)
	require.True(t, ok)
	assert.NotEmpty(t, exp.Summary)

	out, err = NewSkillsTool(p).Call(ctx, nil)
	require.NoError(t, err)
	skills, ok := out.(SkillsResult)
	require.True(t, ok)
	assert.NotEmpty(t, skills.Skills)

	out, err = NewProjectsTool(p).Call(ctx, nil)
	require.NoError(t, err)
	projects, ok := out.(ProjectsResult)
	require.True(t, ok)
	assert.NotEmpty(t, projects.Projects)
}
