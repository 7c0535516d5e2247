package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/app/observability/metrics"
)

const (
	DefaultBaseURL = "https://places.googleapis.com/v1"
	// the autocomplete endpoint accepts at most this many region codes
	maxRegionCodes = 15
)

var _ Provider = (*GoogleClient)(nil)

// GoogleClient calls the Places API (New) over HTTP.
type GoogleClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func NewGoogleClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *GoogleClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
	}
}

type autocompleteRequest struct {
	Input               string   `json:"input"`
	SessionToken        string   `json:"sessionToken,omitempty"`
	IncludedRegionCodes []string `json:"includedRegionCodes,omitempty"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type detailsResponse struct {
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GoogleClient) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "Suggest")
	defer span.End()

	countries := req.Countries
	if len(countries) > maxRegionCodes {
		countries = countries[:maxRegionCodes]
	}
	body, err := json.Marshal(autocompleteRequest{
		Input:               req.Input,
		SessionToken:        string(req.Token),
		IncludedRegionCodes: countries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode autocomplete request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create autocomplete request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp autocompleteResponse
	if err := c.do(httpReq, "suggest", &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "autocomplete failed")
		return nil, err
	}

	out := make([]Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s.PlacePrediction == nil {
			continue
		}
		out = append(out, Suggestion{ID: s.PlacePrediction.PlaceID, Label: s.PlacePrediction.Text.Text})
	}
	span.SetAttributes(attribute.Int("places.suggestions", len(out)))
	return out, nil
}

func (c *GoogleClient) Details(ctx context.Context, placeID string, token SessionToken) (models.GeoPoint, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "Details")
	defer span.End()

	u := c.baseURL + "/places/" + url.PathEscape(placeID)
	if token != "" {
		u += "?" + url.Values{"sessionToken": {string(token)}}.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to create details request: %w", err)
	}
	httpReq.Header.Set("X-Goog-FieldMask", "location")

	var resp detailsResponse
	if err := c.do(httpReq, "details", &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place details failed")
		return models.GeoPoint{}, err
	}
	if resp.Location == nil {
		return models.GeoPoint{}, ErrNoResults
	}
	return models.GeoPoint{Lat: resp.Location.Latitude, Lng: resp.Location.Longitude}, nil
}

func (c *GoogleClient) do(req *http.Request, kind string, out any) error {
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	outcome := "ok"
	defer func() {
		metrics.Get().PlacesRequestsTotal.Add(req.Context(), 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("places %s request failed: %w", kind, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		outcome = "error"
		return fmt.Errorf("failed to read places %s response: %w", kind, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(data, &apiErr)
		if resp.StatusCode == http.StatusTooManyRequests || apiErr.Error.Status == "RESOURCE_EXHAUSTED" {
			outcome = "rate_limited"
			c.logger.Warn("Places provider rate limit hit", zap.String("kind", kind))
			return ErrRateLimited
		}
		outcome = "error"
		return fmt.Errorf("places %s returned %d: %s", kind, resp.StatusCode, apiErr.Error.Message)
	}

	if err := json.Unmarshal(data, out); err != nil {
		outcome = "error"
		return fmt.Errorf("failed to decode places %s response: %w", kind, err)
	}
	return nil
}
