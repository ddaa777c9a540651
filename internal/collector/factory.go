package collector

import (
	"errors"
	"fmt"
	"time"
)

// Source selects and configures a Fetcher.
type Source struct {
	Provider      string // yahoo|vstrader|mock
	BaseURL       string
	APIKey        string
	Proxy         string
	Location      *time.Location
	RatePerSecond float64
}

// NewFetcher builds the fetcher named by src.Provider.
func NewFetcher(src Source) (Fetcher, error) {
	switch src.Provider {
	case "", "yahoo":
		return NewYahooFetcher(src.BaseURL, src.Proxy, src.Location, src.RatePerSecond), nil
	case "vstrader":
		if src.BaseURL == "" {
			return nil, errors.New("vstrader: base url is required")
		}
		return NewVsTraderFetcher(src.BaseURL, src.APIKey, src.Proxy, src.Location), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	}
	return nil, fmt.Errorf("unknown data provider %q", src.Provider)
}
