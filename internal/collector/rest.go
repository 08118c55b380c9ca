package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"IndexVault/internal/model"

	"github.com/shopspring/decimal"
)

// RESTFetcher implements Fetcher against a generic JSON bars endpoint:
//
//	GET {BaseURL}/api/v1/bars/daily?symbol=^GSPC&from=2024-01-03
//	[{"date":"2024-01-03","close":4704.81}, ...]
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Date  string           `json:"date"`
	Close *decimal.Decimal `json:"close"`
}

func (f *RESTFetcher) FetchCloses(ctx context.Context, ticker string, from model.Date) ([]model.Observation, error) {
	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("from", from.String())
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	obs := make([]model.Observation, 0, len(bars))
	for _, b := range bars {
		if b.Close == nil {
			continue
		}
		d, err := model.ParseDate(b.Date)
		if err != nil {
			return nil, fmt.Errorf("decode bars: %w", err)
		}
		obs = append(obs, model.Observation{Date: d, Close: *b.Close})
	}
	return obs, nil
}
