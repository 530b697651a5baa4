package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mfriedel/looksel/internal/adapters/ingest"
	"github.com/mfriedel/looksel/internal/domain"
)

// DefaultBaseURL is the production Data API endpoint.
const DefaultBaseURL = "https://api.planet.com/data/v1"

// APIKeyEnv names the environment variable holding the API key.
const APIKeyEnv = "PL_API_KEY"

// Client talks to the Planet Data API v1 quick-search endpoint and maps
// returned features to domain footprints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	parser     *ingest.GeoJSONParser
	logger     *slog.Logger
}

// ClientConfig holds catalog client configuration.
type ClientConfig struct {
	BaseURL  string
	APIKey   string // falls back to PL_API_KEY
	PageSize int    // default 250, the API maximum
	Timeout  time.Duration
}

// NewClient creates a Data API client.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}
	if cfg.APIKey == "" {
		return nil, &domain.CatalogError{
			Operation: "configure",
			Err:       fmt.Errorf("no API key: set %s or the api_key setting", APIKeyEnv),
		}
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 250 {
		cfg.PageSize = 250
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		parser:     ingest.NewGeoJSONParser(logger),
		logger:     logger,
	}, nil
}

// searchRequest is the quick-search POST body.
type searchRequest struct {
	ItemTypes []string `json:"item_types"`
	Filter    Filter   `json:"filter"`
}

// searchPage is one page of quick-search results.
type searchPage struct {
	Links struct {
		Next string `json:"_next"`
	} `json:"_links"`
	Features []searchFeature `json:"features"`
}

type searchFeature struct {
	ID         string                 `json:"id"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Search runs a quick-search and follows the next links until the result
// set is exhausted. Features that cannot act as footprints are skipped
// and logged, matching the ingest behavior.
func (c *Client) Search(ctx context.Context, itemTypes []string, filter Filter) ([]domain.Footprint, error) {
	body, err := json.Marshal(searchRequest{ItemTypes: itemTypes, Filter: filter})
	if err != nil {
		return nil, &domain.CatalogError{Operation: "search", Err: err}
	}

	url := fmt.Sprintf("%s/quick-search?_page_size=%d", c.baseURL, c.pageSize)
	var footprints []domain.Footprint
	pages := 0

	for url != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.fetchPage(ctx, url, body)
		if err != nil {
			return nil, err
		}
		pages++

		for i := range page.Features {
			fp, err := c.footprintFromSearchFeature(&page.Features[i])
			if err != nil {
				c.logger.Warn("skipping unusable search result", "id", page.Features[i].ID, "error", err)
				continue
			}
			footprints = append(footprints, fp)
		}

		url = page.Links.Next
		// Pages after the first are fetched by GET on the next link.
		body = nil
	}

	c.logger.Info("catalog search completed", "pages", pages, "footprints", len(footprints))
	return footprints, nil
}

// SearchSaved runs a search from a saved YAML definition.
func (c *Client) SearchSaved(ctx context.Context, cfg *SearchConfig) ([]domain.Footprint, error) {
	filter, err := cfg.BuildFilter()
	if err != nil {
		return nil, &domain.CatalogError{Operation: "search", Err: err}
	}
	return c.Search(ctx, cfg.ItemTypes, filter)
}

// fetchPage POSTs the search body, or GETs when following a next link.
func (c *Client) fetchPage(ctx context.Context, url string, body []byte) (*searchPage, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
	if err != nil {
		return nil, &domain.CatalogError{Operation: "search", Err: err}
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.CatalogError{Operation: "search", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.CatalogError{
			Operation:  "search",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("quick-search returned %d: %s", resp.StatusCode, snippet),
		}
	}

	var page searchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &domain.CatalogError{Operation: "search", Err: fmt.Errorf("decoding page: %w", err)}
	}
	return &page, nil
}

// footprintFromSearchFeature maps one search result to a footprint by
// round-tripping it through the shared GeoJSON parser, so catalog and
// file ingest agree on attribute handling.
func (c *Client) footprintFromSearchFeature(feature *searchFeature) (domain.Footprint, error) {
	if feature.Geometry == nil {
		return domain.Footprint{}, &domain.FootprintError{
			ID: feature.ID, Reason: "missing geometry", Err: domain.ErrInvalidFootprint,
		}
	}

	doc := map[string]interface{}{
		"type": "FeatureCollection",
		"features": []interface{}{map[string]interface{}{
			"type":       "Feature",
			"id":         feature.ID,
			"geometry":   json.RawMessage(mustMarshal(feature.Geometry)),
			"properties": feature.Properties,
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.Footprint{}, err
	}

	footprints, _, err := c.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return domain.Footprint{}, err
	}
	if len(footprints) != 1 {
		return domain.Footprint{}, &domain.FootprintError{
			ID: feature.ID, Reason: "feature rejected at ingest", Err: domain.ErrInvalidFootprint,
		}
	}
	return footprints[0], nil
}

func mustMarshal(v json.Marshaler) []byte {
	data, err := v.MarshalJSON()
	if err != nil {
		return []byte("null")
	}
	return data
}
