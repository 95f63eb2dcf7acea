package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
)

const delegateToolName = "delegate_task_to_member"

type delegateArgs struct {
	MemberName string `json:"member_name"`
	Task       string `json:"task"`
}

func parseDelegateArgs(raw string) (delegateArgs, error) {
	var args delegateArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.MemberName == "" || strings.TrimSpace(args.Task) == "" {
		return args, errors.New("member_name and task are required")
	}
	return args, nil
}

func delegateTool(team ai.Team) openai.Tool {
	names := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		names = append(names, m.Name)
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        delegateToolName,
			Description: "Send a task to a team member and receive their findings.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"member_name": map[string]any{
						"type":        "string",
						"enum":        names,
						"description": "Name of the member to delegate to",
					},
					"task": map[string]any{
						"type":        "string",
						"description": "A clear description of what the member should do",
					},
				},
				"required": []string{"member_name", "task"},
			},
		},
	}
}

func memberTools(member ai.Agent) []openai.Tool {
	var tools []openai.Tool
	for _, t := range member.Tools {
		switch t {
		case ai.ToolWebSearch:
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        string(ai.ToolWebSearch),
					Description: "Search the web with DuckDuckGo and return titles, URLs and snippets.",
					Parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"query":       map[string]any{"type": "string", "description": "The search query"},
							"max_results": map[string]any{"type": "integer", "description": "Maximum number of results"},
						},
						"required": []string{"query"},
					},
				},
			})
		case ai.ToolReadWebpage:
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        string(ai.ToolReadWebpage),
					Description: "Fetch a web page and return its main content as markdown.",
					Parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"url": map[string]any{"type": "string", "description": "Absolute http(s) URL"},
						},
						"required": []string{"url"},
					},
				},
			})
		}
	}
	return tools
}

// executeMemberTool never fails the run: tool problems go back to the
// model as text so it can carry on without them.
func (c *Client) executeMemberTool(ctx context.Context, call openai.ToolCall) (string, error) {
	switch ai.Tool(call.Function.Name) {
	case ai.ToolWebSearch:
		var args struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Query == "" {
			return "error: query is required", nil
		}
		if c.Searcher == nil {
			return "error: search is not available", nil
		}
		max := args.MaxResults
		if max <= 0 {
			max = searchResults
		}
		results, err := c.Searcher.Search(ctx, args.Query, max)
		if err != nil {
			return "error: " + err.Error(), nil
		}
		b, err := json.Marshal(results)
		if err != nil {
			return "error: " + err.Error(), nil
		}
		return string(b), nil

	case ai.ToolReadWebpage:
		var args struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.URL == "" {
			return "error: url is required", nil
		}
		if c.Pages == nil {
			return "error: page reading is not available", nil
		}
		md, err := c.Pages.Read(ctx, args.URL)
		if err != nil {
			return "error: " + err.Error(), nil
		}
		return md, nil
	}
	return "error: unknown tool " + call.Function.Name, nil
}
