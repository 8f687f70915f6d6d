package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const DefaultModel = "gemini-2.0-flash"

// ErrUnavailable is returned when no language model is configured.
var ErrUnavailable = errors.New("language model unavailable")

// Completer answers a conversation. The returned text is untrusted.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, messages []types.PromptMessage) (string, error)
}

var (
	_ Completer = (*AIClient)(nil)
	_ Completer = UnavailableCompleter{}
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// BaseURL and HTTPClient override the Gemini endpoint, for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type AIClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

func NewAIClient(ctx context.Context, cfg Config, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if cfg.APIKey == "" {
		span.SetStatus(codes.Error, "API key not set")
		return nil, ErrUnavailable
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	span.SetStatus(codes.Ok, "Gemini client created")
	return &AIClient{client: client, model: model, temperature: temperature, logger: logger}, nil
}

func (ai *AIClient) Complete(ctx context.Context, systemPrompt string, messages []types.PromptMessage) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("llm.model", ai.model),
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()
	l := ai.logger.With(slog.String("method", "Complete"), slog.String("model", ai.model))

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == types.ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(ai.temperature),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	start := time.Now()
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, contents, config)
	metrics.Get().ExternalCallDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("service", "llm"), attribute.Bool("error", err != nil)))
	if err != nil {
		l.WarnContext(ctx, "Model call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		return "", &types.ExternalServiceError{Service: "llm", Err: err}
	}

	text := result.Text()
	if text == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", &types.ExternalServiceError{Service: "llm", Err: errors.New("empty response")}
	}
	span.SetAttributes(attribute.Int("llm.response_length", len(text)))
	span.SetStatus(codes.Ok, "")
	l.DebugContext(ctx, "Model call completed", slog.Duration("latency", time.Since(start)))
	return text, nil
}

// UnavailableCompleter fails every call, so each caller takes its fallback.
type UnavailableCompleter struct{}

func (UnavailableCompleter) Complete(context.Context, string, []types.PromptMessage) (string, error) {
	return "", ErrUnavailable
}

// UserPrompt wraps a single user prompt as a conversation.
func UserPrompt(text string) []types.PromptMessage {
	return []types.PromptMessage{{Role: types.ChatRoleUser, Content: text}}
}
