package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

// Client calls the external scoring service over HTTP. The service owns the
// actual scoring methodology; this client only fetches one score per symbol.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a scorer client for the given base URL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// scoreResponse is the scoring service's response payload
type scoreResponse struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
	Price  string  `json:"price"`
}

// Score fetches the quality score for a single symbol
func (c *Client) Score(ctx context.Context, symbol string) (*models.ScoredCandidate, error) {
	url := fmt.Sprintf("%s/api/v1/score/%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create score request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to score %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorer returned status %d for %s", resp.StatusCode, symbol)
	}

	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode score for %s: %w", symbol, err)
	}

	price, err := decimal.NewFromString(sr.Price)
	if err != nil {
		price = decimal.Zero
	}

	return &models.ScoredCandidate{
		Symbol: symbol,
		Score:  sr.Score,
		Price:  price,
	}, nil
}
