package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

type chatService struct {
	users   ports.UserRepository
	text    ports.TextGenerator
	image   ports.ImageGenerator
	persona string
	log     zerolog.Logger
}

// NewChatService returns a ChatService relaying prompts to the given generators.
func NewChatService(
	users ports.UserRepository,
	text ports.TextGenerator,
	image ports.ImageGenerator,
	persona string,
	log zerolog.Logger,
) ports.ChatService {
	if persona == "" {
		persona = DefaultPersona
	}
	return &chatService{users: users, text: text, image: image, persona: persona, log: log}
}

// Chat relays a single prompt and returns the provider's answer verbatim.
// No retries, no caching; any provider failure surfaces as ErrGenerationFailed.
func (s *chatService) Chat(ctx context.Context, userID, prompt string) (string, error) {
	user, err := s.identify(ctx, userID, prompt)
	if err != nil {
		return "", err
	}

	system := BuildSystemPrompt(s.persona, user.Name, time.Now().UTC())

	answer, err := s.text.GenerateText(ctx, system, prompt)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("text generation failed")
		return "", fmt.Errorf("chat: %w", domain.ErrGenerationFailed)
	}

	return answer, nil
}

// GenerateImage relays a prompt to the image generator and wraps the result
// as a data URI the frontend can drop into an <img> tag.
func (s *chatService) GenerateImage(ctx context.Context, userID, prompt string) (*ports.ImageResult, error) {
	user, err := s.identify(ctx, userID, prompt)
	if err != nil {
		return nil, err
	}

	b64, err := s.image.GenerateImage(ctx, prompt)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("image generation failed")
		return nil, fmt.Errorf("generate image: %w", domain.ErrGenerationFailed)
	}

	return &ports.ImageResult{
		Text:  fmt.Sprintf("Here is your image, %s.", user.Name),
		Image: "data:image/png;base64," + b64,
	}, nil
}

// identify rejects empty prompts before any lookup or provider call, then
// resolves the authenticated user.
func (s *chatService) identify(ctx context.Context, userID, prompt string) (*domain.User, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrPromptRequired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("identify user: %w", err)
	}
	return user, nil
}
