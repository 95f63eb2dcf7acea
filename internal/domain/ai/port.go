package ai

import "context"

// Binding is the model a team runs on plus the caller's key for it.
// It is passed by value; nothing keeps it after a run.
type Binding struct {
	ModelID    string
	Credential string
}

// Client runs a team once: the coordinator receives prompt and image,
// may delegate to members, and its final text is returned.
type Client interface {
	Run(ctx context.Context, b Binding, team Team, prompt, imageRef string) (string, error)
}
