package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const DefaultUnsplashURL = "https://api.unsplash.com/search/photos"

// Searcher returns an image URL for the query, or types.ErrNotFound.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

var (
	_ Searcher = (*UnsplashSearcher)(nil)
	_ Searcher = NoopSearcher{}
)

type UnsplashSearcher struct {
	baseURL   string
	accessKey string
	client    *http.Client
	logger    *slog.Logger
}

func NewUnsplashSearcher(baseURL, accessKey string, client *http.Client, logger *slog.Logger) *UnsplashSearcher {
	if baseURL == "" {
		baseURL = DefaultUnsplashURL
	}
	return &UnsplashSearcher{baseURL: baseURL, accessKey: accessKey, client: client, logger: logger}
}

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

func (s *UnsplashSearcher) Search(ctx context.Context, query string) (string, error) {
	ctx, span := otel.Tracer("ImageService").Start(ctx, "UnsplashSearcher.Search", trace.WithAttributes(
		attribute.String("image.query", query),
	))
	defer span.End()

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	var body unsplashResponse
	headers := map[string]string{
		"Authorization":  "Client-ID " + s.accessKey,
		"Accept-Version": "v1",
	}
	if err := external.GetJSON(ctx, s.client, s.baseURL+"?"+q.Encode(), headers, "unsplash", &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.DebugContext(ctx, "Image search failed", slog.String("query", query), slog.Any("error", err))
		return "", err
	}
	if len(body.Results) == 0 {
		return "", fmt.Errorf("image %q: %w", query, types.ErrNotFound)
	}
	u := body.Results[0].URLs.Regular
	if u == "" {
		u = body.Results[0].URLs.Small
	}
	if u == "" {
		return "", fmt.Errorf("image %q: %w", query, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "")
	return u, nil
}

// NoopSearcher is used when no image API key is configured.
type NoopSearcher struct{}

func (NoopSearcher) Search(context.Context, string) (string, error) {
	return "", types.ErrNotFound
}
