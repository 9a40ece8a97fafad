package ports

import "context"

// ImageResult is the answer to an image-generation request. Image is a
// data URI ("data:image/png;base64,...") ready for an <img> src attribute.
type ImageResult struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// ChatService relays authenticated prompts to the generative-AI provider.
type ChatService interface {
	Chat(ctx context.Context, userID, prompt string) (string, error)
	GenerateImage(ctx context.Context, userID, prompt string) (*ImageResult, error)
}
