package ports

import "context"

// TextGenerator produces a completion for a system+user prompt pair.
// Implemented by the OpenAI adapter; stubbed in tests.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageGenerator produces a base64-encoded PNG for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
