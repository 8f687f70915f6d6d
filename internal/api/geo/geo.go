package geo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Geocoder resolves free text to coordinates. It returns types.ErrNotFound
// when the provider has no match.
type Geocoder interface {
	Lookup(ctx context.Context, text string) (*types.GeoPoint, error)
}

var (
	_ Geocoder = (*OpenMeteoGeocoder)(nil)
	_ Geocoder = (*NominatimGeocoder)(nil)
)

const (
	DefaultOpenMeteoURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
)

// OpenMeteoGeocoder resolves city names.
type OpenMeteoGeocoder struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewOpenMeteoGeocoder(baseURL string, client *http.Client, logger *slog.Logger) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoGeocoder{baseURL: baseURL, client: client, logger: logger}
}

type openMeteoResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (g *OpenMeteoGeocoder) Lookup(ctx context.Context, text string) (*types.GeoPoint, error) {
	ctx, span := otel.Tracer("GeoService").Start(ctx, "OpenMeteoGeocoder.Lookup", trace.WithAttributes(
		attribute.String("geo.query", text),
	))
	defer span.End()

	// The API matches on the place name only, so drop any ", Country" suffix.
	name := strings.TrimSpace(strings.Split(text, ",")[0])
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var body openMeteoResponse
	if err := external.GetJSON(ctx, g.client, g.baseURL+"?"+q.Encode(), nil, "open-meteo-geocoding", &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		g.logger.WarnContext(ctx, "Geocoding failed", slog.String("query", text), slog.Any("error", err))
		return nil, err
	}
	if len(body.Results) == 0 {
		span.SetStatus(codes.Error, "no results")
		return nil, fmt.Errorf("geocode %q: %w", text, types.ErrNotFound)
	}
	r := body.Results[0]
	span.SetStatus(codes.Ok, "")
	return &types.GeoPoint{
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		DisplayName: strings.TrimSuffix(r.Name+", "+r.Country, ", "),
	}, nil
}

// NominatimGeocoder resolves specific places (activities).
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

func NewNominatimGeocoder(baseURL, userAgent string, client *http.Client, logger *slog.Logger) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "go-trip-planner/1.0"
	}
	return &NominatimGeocoder{baseURL: baseURL, userAgent: userAgent, client: client, logger: logger}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *NominatimGeocoder) Lookup(ctx context.Context, text string) (*types.GeoPoint, error) {
	ctx, span := otel.Tracer("GeoService").Start(ctx, "NominatimGeocoder.Lookup", trace.WithAttributes(
		attribute.String("geo.query", text),
	))
	defer span.End()

	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("limit", "1")

	var body []nominatimResult
	if err := external.GetJSON(ctx, g.client, g.baseURL+"?"+q.Encode(), map[string]string{"User-Agent": g.userAgent}, "nominatim", &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		g.logger.DebugContext(ctx, "Place lookup failed", slog.String("query", text), slog.Any("error", err))
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("geocode %q: %w", text, types.ErrNotFound)
	}
	lat, err := strconv.ParseFloat(body[0].Lat, 64)
	if err != nil {
		return nil, &types.ExternalServiceError{Service: "nominatim", Err: fmt.Errorf("bad latitude %q", body[0].Lat)}
	}
	lon, err := strconv.ParseFloat(body[0].Lon, 64)
	if err != nil {
		return nil, &types.ExternalServiceError{Service: "nominatim", Err: fmt.Errorf("bad longitude %q", body[0].Lon)}
	}
	span.SetStatus(codes.Ok, "")
	return &types.GeoPoint{Latitude: lat, Longitude: lon, DisplayName: body[0].DisplayName}, nil
}
