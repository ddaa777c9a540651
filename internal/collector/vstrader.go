package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"PivotSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	Location *time.Location
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string, loc *time.Location) *VsTraderFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Location: loc,
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *VsTraderFetcher) FetchBars(ctx context.Context, symbol string, tf model.TimeFrame) ([]model.OHLCV, error) {
	s, ok := spanFor(tf)
	if !ok {
		return nil, fmt.Errorf("vstrader: unsupported timeframe %q", tf)
	}
	switch tf {
	case model.TimeFrameDay:
		return f.fetchBars(ctx, f.endpoint("daily", symbol, s.Bars))
	case model.TimeFrameWeek:
		return f.withDailyFallback(ctx, symbol, "weekly", s.Bars, s.Bars*7, aggregateDailyToWeekly)
	default:
		return f.withDailyFallback(ctx, symbol, "monthly", s.Bars, s.Bars*31, aggregateDailyToMonthly)
	}
}

// withDailyFallback tries the native endpoint first; if the API only
// provides daily bars, they are aggregated internally.
func (f *VsTraderFetcher) withDailyFallback(ctx context.Context, symbol, period string, limit, days int, aggregate func([]model.OHLCV) []model.OHLCV) ([]model.OHLCV, error) {
	bars, err := f.fetchBars(ctx, f.endpoint(period, symbol, limit))
	if err == nil {
		return bars, nil
	}
	daily, dailyErr := f.fetchBars(ctx, f.endpoint("daily", symbol, days))
	if dailyErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", period, err, dailyErr)
	}
	return aggregate(daily), nil
}

func (f *VsTraderFetcher) endpoint(period, symbol string, limit int) string {
	return fmt.Sprintf("%s/api/v1/bars/%s?symbol=%s&limit=%d", f.BaseURL, period, url.QueryEscape(symbol), limit)
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.OHLCV, error) {
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
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.OHLCV{
			Time:   time.Unix(vb.Timestamp, 0).In(f.Location),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
