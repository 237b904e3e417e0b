package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// gammaPageSize is the page size used when walking the full market listing.
const gammaPageSize = 500

// GammaClient is the REST client for the Polymarket Gamma API, which provides
// market discovery, metadata, and prices. It implements domain.MarketSource.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.MarketSource = (*GammaClient)(nil)

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Platform identifies this source as Polymarket.
func (g *GammaClient) Platform() domain.Platform {
	return domain.PlatformPolymarket
}

// FetchMarkets walks the paginated /markets endpoint and returns all active
// binary markets as MarketRecords. Closed markets and markets without
// parseable Yes/No prices are skipped.
func (g *GammaClient) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	observedAt := time.Now().UTC()

	var records []domain.MarketRecord
	offset := 0
	for {
		apiMarkets, err := g.getMarketsPage(ctx, gammaPageSize, offset)
		if err != nil {
			return nil, err
		}

		for i := range apiMarkets {
			m := &apiMarkets[i]
			if m.Closed || !bool(m.Active) {
				continue
			}
			rec, ok := m.ToMarketRecord(observedAt)
			if !ok {
				continue
			}
			records = append(records, rec)
		}

		if len(apiMarkets) < gammaPageSize {
			break
		}
		offset += gammaPageSize
	}

	return records, nil
}

// FetchQuote returns the current quote for one market by its condition ID.
func (g *GammaClient) FetchQuote(ctx context.Context, conditionID string) (domain.QuoteSnapshot, error) {
	m, err := g.GetMarketByConditionID(ctx, conditionID)
	if err != nil {
		return domain.QuoteSnapshot{}, err
	}

	quote, ok := m.ToQuoteSnapshot(time.Now().UTC())
	if !ok {
		return domain.QuoteSnapshot{}, fmt.Errorf("polymarket/gamma: %w: market %s has no binary prices", domain.ErrBadData, conditionID)
	}
	return quote, nil
}

// GetMarketByConditionID returns a single market looked up by its condition ID.
func (g *GammaClient) GetMarketByConditionID(ctx context.Context, conditionID string) (APIMarket, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	path := "/markets?" + params.Encode()

	body, err := g.doGet(ctx, path)
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: get market %s: %w", conditionID, err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	if len(apiMarkets) == 0 {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: %w: condition_id=%s", domain.ErrNotFound, conditionID)
	}

	return apiMarkets[0], nil
}

// getMarketsPage fetches one page of the market listing.
func (g *GammaClient) getMarketsPage(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")

	path := "/markets?" + params.Encode()

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	return apiMarkets, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransient, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain sentinel errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrTransient, statusCode, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
