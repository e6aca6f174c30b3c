// Package ai wraps the generative language model used for grading free-text
// answers and drafting quiz questions.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TextGenerator is the text-in/text-out contract of the generative model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	ErrNotConfigured = errors.New("generative model is not configured")
	ErrTransient     = errors.New("generative model temporarily unavailable")
	ErrTimeout       = errors.New("generative model call timed out")
	ErrRefused       = errors.New("generative model refused the prompt")
)

// IsTransient reports whether a failed call is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// GeminiClient implements TextGenerator on top of the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiClient builds a client from explicit configuration. It returns
// ErrNotConfigured when no API key is present.
func NewGeminiClient(ctx context.Context, cfg config.GradingConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{client: client, model: model, modelName: cfg.Model}, nil
}

func (g *GeminiClient) ModelName() string {
	return g.modelName
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrRefused)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: blocked for safety", ErrRefused)
	}
	if cand.Content == nil {
		return "", fmt.Errorf("%w: empty candidate", ErrRefused)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: candidate has no text", ErrRefused)
	}
	return sb.String(), nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func classifyError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", ErrRefused, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}

	return fmt.Errorf("gemini request failed: %w", err)
}

// unconfigured is used when no API key is available; every call degrades.
type unconfigured struct{}

// NewUnconfiguredGenerator returns a TextGenerator that always fails with ErrNotConfigured.
func NewUnconfiguredGenerator() TextGenerator {
	return unconfigured{}
}

func (unconfigured) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
