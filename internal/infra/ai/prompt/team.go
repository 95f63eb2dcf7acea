package prompt

import "github.com/bryanwahyu/medvision/internal/domain/ai"

const (
	TeamName       = "SV-MedVision Pro Team"
	ResearcherName = "Medical Researcher"
	researcherRole = "Search for latest clinical guidelines and literature"
)

// ShellTeam is the team used by the interactive shell. Its researcher gets
// the broader instruction set.
func ShellTeam() ai.Team {
	return ai.Team{
		Name:    TeamName,
		Members: []ai.Agent{researcher(ShellResearcherInstructions)},
		Coordinator: ai.Agent{
			Name: TeamName,
			Description: "You are the SV-MedVision Pro Diagnostic Team. Your goal is to produce a " +
				"professional, finalized Clinical Radiology Report. Do NOT output your internal " +
				"reasoning steps (Step 1, Step 2, etc.). Output only the final report.",
			Instructions: []string{
				"1. ANALYZE: Conduct a systematic visual assessment of the image (Modality, View, Findings).",
				"2. RESEARCH: Consult the Medical Researcher for 2024-2025 clinical standards related to the findings.",
				"3. PROTOCOL: Apply the SV-MedVision Protocol (Systematic Review -> Differential Diagnosis -> Safety Check).",
				"4. OUTPUT: Provide a report with the following sections: [CLINICAL FINDINGS], [RESEARCH GROUNDING], [DIFFERENTIAL DIAGNOSIS], [SAFETY/SELF-VERIFICATION], and [FINAL RECOMMENDATION].",
				"5. CONFIDENCE: Include a clear 'Confidence Score: XX%' at the top.",
				"6. FINAL REPORT ONLY: Do not say 'I will now delegate'. Just perform the actions and show the result.",
			},
		},
		Markdown: true,
	}
}

// APITeam is the team used by POST /analyze. Its researcher is held to
// the narrower instruction set.
func APITeam() ai.Team {
	return ai.Team{
		Name:    TeamName,
		Members: []ai.Agent{researcher(APIResearcherInstructions)},
		Coordinator: ai.Agent{
			Name: TeamName,
			Description: "You are the SV-MedVision Pro Diagnostic Team. You deliver " +
				"final medical reports based on visual analysis and literature research.",
			Instructions: []string{
				"1. ANALYZE: Conduct a systematic visual assessment of the chest image.",
				"2. RESEARCH: Consult the Medical Researcher for specific 2024-2025 guidelines.",
				"3. FINAL OUTPUT: Provide a report with ONLY these sections: [CLINICAL FINDINGS], [RESEARCH GROUNDING], [DIFFERENTIAL DIAGNOSIS], [SAFETY/SELF-VERIFICATION], and [FINAL RECOMMENDATION].",
				"4. NO JSON: Do not output any JSON, brackets, or function-call syntax. Output only plain Markdown text.",
				"5. NO INTERNAL STEPS: Do not mention 'delegating' or 'steps'.",
				"6. CONFIDENCE: Include 'Confidence Score: XX%' at the top.",
			},
		},
		Markdown: true,
	}
}

var (
	ShellResearcherInstructions = []string{
		"Search for credible medical sources (PubMed, Mayo Clinic, RadiologyAssistant).",
		"Verify all surgical or pharmacological recommendations using the latest 2024-2025 guidelines.",
		"List URLs for every clinical claim made.",
	}
	APIResearcherInstructions = []string{
		"Search for credible medical sources (PubMed, Mayo Clinic).",
		"Verify surgical or pharmacological recommendations using 2024-2025 guidelines.",
	}
)

func researcher(instructions []string) ai.Agent {
	return ai.Agent{
		Name:         ResearcherName,
		Role:         researcherRole,
		Instructions: instructions,
		Tools:        []ai.Tool{ai.ToolWebSearch, ai.ToolReadWebpage},
	}
}
