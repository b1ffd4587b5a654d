package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Compile-time interface check.
var _ Client = (*GrowwClient)(nil)

// GrowwClient implements Client against the Groww REST API using a
// pre-generated access token.
type GrowwClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewGrowwClient creates a GrowwClient with a 10-second timeout HTTP client.
func NewGrowwClient(baseURL, accessToken string) *GrowwClient {
	return &GrowwClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// holdingsResponse is the broker's holdings payload.
type holdingsResponse struct {
	Holdings []Position `json:"holdings"`
}

// Holdings returns all positions in the user's portfolio.
func (c *GrowwClient) Holdings(ctx context.Context) ([]Position, error) {
	var resp holdingsResponse
	if err := c.get(ctx, "/v1/api/portfolio/holdings", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching holdings: %w", err)
	}
	return resp.Holdings, nil
}

// Quote returns the latest quote for the given trading symbol on the NSE
// cash segment.
func (c *GrowwClient) Quote(ctx context.Context, tradingSymbol string) (*Quote, error) {
	params := url.Values{
		"trading_symbol": {tradingSymbol},
		"exchange":       {"NSE"},
		"segment":        {"CASH"},
	}

	var quote Quote
	if err := c.get(ctx, "/v1/api/quote", params, &quote); err != nil {
		return nil, fmt.Errorf("fetching quote for %q: %w", tradingSymbol, err)
	}
	return &quote, nil
}

// get performs an authenticated GET request and decodes the JSON response
// into out.
func (c *GrowwClient) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}
