package openai

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
)

func coordinatorSystemPrompt(team ai.Team) string {
	var sb strings.Builder
	c := team.Coordinator
	if c.Description != "" {
		sb.WriteString(strings.TrimSpace(c.Description))
		sb.WriteString("\n\n")
	}
	writeInstructions(&sb, c.Instructions)

	if len(team.Members) > 0 {
		sb.WriteString("<team_members>\n")
		for _, m := range team.Members {
			fmt.Fprintf(&sb, "- Name: %s\n  Role: %s\n", m.Name, m.Role)
		}
		sb.WriteString("</team_members>\n\n")
		fmt.Fprintf(&sb, "You can delegate work to a member with the %s tool. "+
			"Members cannot see the image; describe what you observed when delegating.\n", delegateToolName)
	}
	if team.Markdown {
		sb.WriteString("Use markdown to format your answers.\n")
	}
	return strings.TrimSpace(sb.String())
}

func memberSystemPrompt(member ai.Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.\nYour role: %s\n\n", member.Name, member.Role)
	writeInstructions(&sb, member.Instructions)
	if len(member.Tools) > 0 {
		sb.WriteString("Use your tools to find sources before answering. Answer with findings and their URLs.\n")
	}
	return strings.TrimSpace(sb.String())
}

func writeInstructions(sb *strings.Builder, instructions []string) {
	if len(instructions) == 0 {
		return
	}
	sb.WriteString("<instructions>\n")
	for _, in := range instructions {
		sb.WriteString("- ")
		sb.WriteString(in)
		sb.WriteString("\n")
	}
	sb.WriteString("</instructions>\n\n")
}
