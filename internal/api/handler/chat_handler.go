package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumina-chat/lumina-api/internal/api/metrics"
	"github.com/lumina-chat/lumina-api/internal/core/domain"
	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

// promptRequest carries the free-text prompt. Emptiness is checked by the
// service so the "no provider call" guarantee lives in one place.
type promptRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type imageResponse struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type ChatHandler struct {
	chat ports.ChatService
}

func NewChatHandler(chat ports.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat relays a prompt to the AI provider and returns the answer.
//
// @Summary      Chat with the assistant
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      promptRequest  true  "Prompt"
// @Success      200   {object}  chatResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /ai/chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req promptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	start := time.Now()
	answer, err := h.chat.Chat(c.Request().Context(), userID, req.Prompt)
	if err != nil {
		return h.relayError(c, "chat", err)
	}

	metrics.AIRequestsTotal.WithLabelValues("chat", "success").Inc()
	metrics.AIRequestDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, chatResponse{Answer: answer})
}

// GenerateImage relays a prompt to the image generator.
//
// @Summary      Generate an image
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      promptRequest  true  "Prompt"
// @Success      200   {object}  imageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /ai/image [post]
func (h *ChatHandler) GenerateImage(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req promptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	start := time.Now()
	res, err := h.chat.GenerateImage(c.Request().Context(), userID, req.Prompt)
	if err != nil {
		return h.relayError(c, "image", err)
	}

	metrics.AIRequestsTotal.WithLabelValues("image", "success").Inc()
	metrics.AIRequestDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, imageResponse{Text: res.Text, Image: res.Image})
}

func (h *ChatHandler) relayError(c echo.Context, kind string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPromptRequired):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrGenerationFailed):
		metrics.AIRequestsTotal.WithLabelValues(kind, "failure").Inc()
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: domain.ErrGenerationFailed.Error()})
	}
	return err
}
