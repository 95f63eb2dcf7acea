package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medvision/internal/domain/ai"
	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
	"github.com/bryanwahyu/medvision/internal/infra/search"
)

const (
	maxTokens     = 2048
	maxToolRounds = 6
	searchResults = 5
)

// PageReader fetches a page as markdown for the read_webpage tool.
type PageReader interface {
	Read(ctx context.Context, url string) (string, error)
}

// Client runs teams against any OpenAI-compatible endpoint (Groq by
// default). A fresh SDK client is built per run because the key belongs
// to the caller, not the server.
type Client struct {
	BaseURL       string
	HTTPClient    *http.Client
	MaxTokens     int
	Temperature   float32
	MaxToolRounds int
	Searcher      search.Searcher
	Pages         PageReader
}

func NewClient(baseURL string, searcher search.Searcher, pages PageReader) *Client {
	return &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{},
		MaxTokens:     maxTokens,
		MaxToolRounds: maxToolRounds,
		Searcher:      searcher,
		Pages:         pages,
	}
}

// Run sends prompt and image to the coordinator and returns its final text.
func (c *Client) Run(ctx context.Context, b ai.Binding, team ai.Team, prompt, imageRef string) (string, error) {
	cli := c.sdk(b.Credential)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: coordinatorSystemPrompt(team)},
		{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    imageRef,
				Detail: openai.ImageURLDetailAuto,
			}},
		}},
	}

	var tools []openai.Tool
	if len(team.Members) > 0 {
		tools = append(tools, delegateTool(team))
	}

	return c.loop(ctx, cli, b.ModelID, messages, tools, func(ctx context.Context, call openai.ToolCall) (string, error) {
		if call.Function.Name != delegateToolName {
			return "error: unknown tool " + call.Function.Name, nil
		}
		args, err := parseDelegateArgs(call.Function.Arguments)
		if err != nil {
			return "error: " + err.Error(), nil
		}
		member, ok := team.Member(args.MemberName)
		if !ok {
			return fmt.Sprintf("error: no team member named %q", args.MemberName), nil
		}
		return c.runMember(ctx, cli, b.ModelID, member, args.Task)
	})
}

func (c *Client) runMember(ctx context.Context, cli *openai.Client, model string, member ai.Agent, task string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: memberSystemPrompt(member)},
		{Role: openai.ChatMessageRoleUser, Content: task},
	}
	return c.loop(ctx, cli, model, messages, memberTools(member), c.executeMemberTool)
}

type toolExecutor func(ctx context.Context, call openai.ToolCall) (string, error)

// loop drives one agent until it answers without tool calls. The last
// allowed round is sent without tools so the model has to answer; tool
// calls coming back after that end the run.
func (c *Client) loop(ctx context.Context, cli *openai.Client, model string, messages []openai.ChatCompletionMessage, tools []openai.Tool, exec toolExecutor) (string, error) {
	rounds := c.MaxToolRounds
	if rounds <= 0 {
		rounds = maxToolRounds
	}
	for round := 0; ; round++ {
		req := openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
		}
		if round < rounds && len(tools) > 0 {
			req.Tools = tools
		}

		resp, err := cli.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: %w", diagnosis.ErrRemoteCall, ai.ErrEmptyResponse)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}
		if round >= rounds {
			if text := strings.TrimSpace(msg.Content); text != "" {
				return text, nil
			}
			return "", fmt.Errorf("%w: %w (%d rounds)", diagnosis.ErrRemoteCall, ai.ErrToolRoundsExhausted, rounds)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out, err := exec(ctx, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}
}

func (c *Client) sdk(credential string) *openai.Client {
	cfg := openai.DefaultConfig(credential)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

// classify folds every provider failure into ErrRemoteCall, tagging 429s.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %w", diagnosis.ErrRemoteCall, ai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", diagnosis.ErrRemoteCall, err)
}
