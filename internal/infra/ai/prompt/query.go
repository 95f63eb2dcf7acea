package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

// FocusLabels are the areas offered by the shell's multi-select.
var FocusLabels = []string{
	"Lung Parenchyma",
	"Cardiomegaly",
	"Fracture/Orthopedic",
	"Soft Tissue",
	"Neurological",
}

// SearchDepths is shown in the shell only; it is not sent to the model.
var SearchDepths = []string{"Direct", "General", "Comprehensive"}

// DefaultSearchDepth is preselected in the shell.
const DefaultSearchDepth = "General"

// APIQuery builds the query for POST /analyze. focus is embedded verbatim.
func APIQuery(focus string) string {
	return fmt.Sprintf("Perform a high-precision diagnostic analysis focusing on %s.", focus)
}

// ShellQuery builds the protocol query for the shell, joining labels with ", ".
func ShellQuery(labels []string) string {
	return fmt.Sprintf(`Perform a high-precision analysis focusing on %s.
Apply the SV-MedVision Clinical Protocol:
- Modality Identification
- Systematic Findings (Location, Size, Density)
- Differential Diagnoses
- Clinical Grounding (Search for 2024 protocols)
- SELF-VERIFICATION (Highlight any contradictions found)
- Quantitative Confidence Score (%%)`, strings.Join(labels, ", "))
}

// Briefing picks the team and query for a request shape.
type Briefing struct{}

func (Briefing) Brief(shape diagnosis.Shape, focus diagnosis.Focus) (ai.Team, string) {
	if shape == diagnosis.ShapeShell {
		return ShellTeam(), ShellQuery(focus)
	}
	return APITeam(), APIQuery(focus.Joined())
}
