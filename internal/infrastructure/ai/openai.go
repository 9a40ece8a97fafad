package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Config captures the generative-AI provider settings.
type Config struct {
	APIKey     string
	ChatModel  string
	ImageModel string
}

// OpenAIProvider implements the text and image generator ports against the
// OpenAI API. The provider is treated as a black box: one request per relay,
// no retries, no streaming.
type OpenAIProvider struct {
	client     *openai.Client
	chatModel  string
	imageModel string
}

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	return &OpenAIProvider{
		client:     openai.NewClient(cfg.APIKey),
		chatModel:  chatModel,
		imageModel: imageModel,
	}
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage returns the image as base64-encoded PNG.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", errors.New("create image: empty response")
	}
	return resp.Data[0].B64JSON, nil
}
