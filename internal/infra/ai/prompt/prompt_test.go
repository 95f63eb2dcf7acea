package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

func TestShellQueryJoinsLabelsOnce(t *testing.T) {
	q := ShellQuery([]string{"Lung Parenchyma", "Cardiomegaly"})

	assert.Equal(t, 1, strings.Count(q, "Lung Parenchyma, Cardiomegaly"))
	assert.Equal(t, 1, strings.Count(q, "Lung Parenchyma"))
	assert.Equal(t, 1, strings.Count(q, "Cardiomegaly"))
	assert.Contains(t, q, "Quantitative Confidence Score (%)")
}

func TestAPIQueryEmbedsFocusVerbatim(t *testing.T) {
	focus := `Soft Tissue "and" <anything>`
	assert.Equal(t,
		`Perform a high-precision diagnostic analysis focusing on Soft Tissue "and" <anything>.`,
		APIQuery(focus))
}

func TestTeamsDifferOnlyInResearcherBreadth(t *testing.T) {
	shell, api := ShellTeam(), APITeam()

	require.Len(t, shell.Members, 1)
	require.Len(t, api.Members, 1)
	assert.Equal(t, ResearcherName, shell.Members[0].Name)
	assert.Equal(t, shell.Members[0].Role, api.Members[0].Role)
	assert.Equal(t, shell.Members[0].Tools, api.Members[0].Tools)
	assert.Len(t, shell.Members[0].Instructions, 3)
	assert.Len(t, api.Members[0].Instructions, 2)

	for _, team := range []ai.Team{shell, api} {
		assert.True(t, team.Markdown)
		assert.Len(t, team.Coordinator.Instructions, 6)
		_, ok := team.Member(ResearcherName)
		assert.True(t, ok)
	}
}

func TestBriefingByShape(t *testing.T) {
	team, query := Briefing{}.Brief(diagnosis.ShapeShell, diagnosis.Focus{"Cardiomegaly", "Soft Tissue"})
	assert.Len(t, team.Members[0].Instructions, 3)
	assert.Contains(t, query, "focusing on Cardiomegaly, Soft Tissue.")

	team, query = Briefing{}.Brief(diagnosis.ShapeAPI, diagnosis.Focus{"left wrist, distal radius"})
	assert.Len(t, team.Members[0].Instructions, 2)
	assert.Equal(t, "Perform a high-precision diagnostic analysis focusing on left wrist, distal radius.", query)
}
