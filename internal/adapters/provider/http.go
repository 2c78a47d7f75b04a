package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"marketsim/internal/domain"
)

const (
	defaultBaseURL = "https://min-api.cryptocompare.com"

	// Free tier allows bursts but throttles sustained traffic; stay well
	// under it.
	requestsPerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	// histoday returns at most 2000 rows per call.
	maxRowsPerCall = 2000
)

// CryptoCompare fetches daily OHLCV bars from the CryptoCompare histoday
// endpoint, paging backwards through time until the requested range is
// covered.
type CryptoCompare struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	currency string
	limiter  *rate.Limiter
}

// NewCryptoCompare creates a provider quoting against the given currency
// (default "USD"). An empty baseURL uses the production API.
func NewCryptoCompare(baseURL, apiKey, currency string) *CryptoCompare {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if currency == "" {
		currency = "USD"
	}
	return &CryptoCompare{
		http:     &http.Client{Timeout: 15 * time.Second},
		baseURL:  baseURL,
		apiKey:   apiKey,
		currency: currency,
		limiter:  rate.NewLimiter(requestsPerSec, 2),
	}
}

// Source identifies this provider in cache keys.
func (c *CryptoCompare) Source() string { return "cryptocompare" }

type histoDayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []histoDayRow `json:"Data"`
	} `json:"Data"`
}

type histoDayRow struct {
	Time     int64   `json:"time"`
	Open     float64 `json:"open"`
	Close    float64 `json:"close"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	VolumeTo float64 `json:"volumeto"`
}

// FetchBars pulls daily bars covering [start, end]. The interval argument is
// accepted for the port contract but the endpoint only serves daily data.
func (c *CryptoCompare) FetchBars(ctx context.Context, asset string, start, end time.Time, _ time.Duration) ([]domain.PriceBar, []byte, error) {
	var bars []domain.PriceBar
	var lastRaw []byte

	// Page backwards from the end date until the start is covered.
	toTs := domain.Day(end).Unix()
	startTs := domain.Day(start).Unix()
	for {
		raw, rows, err := c.fetchPage(ctx, asset, toTs)
		if err != nil {
			return nil, nil, fmt.Errorf("provider.FetchBars: %s: %w", asset, err)
		}
		lastRaw = raw
		if len(rows) == 0 {
			break
		}

		page := make([]domain.PriceBar, 0, len(rows))
		for _, r := range rows {
			// Leading zero rows mark dates before the asset existed.
			if r.Close == 0 && r.Open == 0 {
				continue
			}
			page = append(page, domain.PriceBar{
				Date:   domain.Day(time.Unix(r.Time, 0).UTC()),
				Open:   r.Open,
				Close:  r.Close,
				High:   r.High,
				Low:    r.Low,
				Volume: r.VolumeTo,
			})
		}
		bars = append(page, bars...)

		oldest := rows[0].Time
		if oldest <= startTs || len(rows) < maxRowsPerCall {
			break
		}
		toTs = oldest - 86400
	}

	slog.Debug("fetched bars", "source", c.Source(), "asset", asset, "bars", len(bars))
	return bars, lastRaw, nil
}

// fetchPage requests one histoday page ending at toTs, with rate limiting
// and exponential-backoff retries on transient failures.
func (c *CryptoCompare) fetchPage(ctx context.Context, asset string, toTs int64) ([]byte, []histoDayRow, error) {
	q := url.Values{}
	q.Set("fsym", asset)
	q.Set("tsym", c.currency)
	q.Set("limit", fmt.Sprintf("%d", maxRowsPerCall))
	q.Set("toTs", fmt.Sprintf("%d", toTs))
	endpoint := fmt.Sprintf("%s/data/v2/histoday?%s", c.baseURL, q.Encode())

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Apikey "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, nil, fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("retrying histoday request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode >= 400 {
			return nil, nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		var parsed histoDayResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, nil, fmt.Errorf("decode response: %w", err)
		}
		if parsed.Response == "Error" {
			return nil, nil, fmt.Errorf("api error: %s", parsed.Message)
		}
		return body, parsed.Data.Data, nil
	}
	return nil, nil, fmt.Errorf("exhausted %d retries", maxRetries)
}

func (c *CryptoCompare) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
