package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// MarketDataClient fetches historical price series from the market data
// service. Transient failures are retried with exponential backoff.
type MarketDataClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

// NewMarketDataClient creates a new market data client
func NewMarketDataClient(baseURL string, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *MarketDataClient {
	return &MarketDataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     logger,
	}
}

type priceResponse struct {
	Dates  []string             `json:"dates"`
	Series map[string][]float64 `json:"series"`
}

// GetPriceTable fetches aligned price series for the given assets. window is
// passed through to the source (e.g. "1y", "5y") and may be empty.
func (c *MarketDataClient) GetPriceTable(ctx context.Context, assets []string, window string) (*model.PriceTable, error) {
	if len(assets) == 0 {
		return nil, model.NewDataError("assets", "no assets requested")
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(assets, ","))
	if window != "" {
		query.Set("window", window)
	}
	endpoint := fmt.Sprintf("%s/api/v1/prices?%s", c.baseURL, query.Encode())

	var payload priceResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Market data request failed, will retry",
				zap.String("url", endpoint),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.logger.Warn("Market data source error, will retry",
				zap.Int("status", resp.StatusCode))
			return fmt.Errorf("market data source returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("market data source returned status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode price response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	rows := model.PriceRows{Dates: payload.Dates, Series: payload.Series}
	table, err := rows.Table()
	if err != nil {
		return nil, err
	}
	for _, name := range assets {
		if !table.Has(name) {
			return nil, model.NewDataError(name, "market data source returned no series")
		}
	}
	return table, nil
}
