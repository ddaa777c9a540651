package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/cache"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/strategy"
)

func TestGetSeries_CachesBySymbolAndTimeframe(t *testing.T) {
	ctx := context.Background()
	mock := &MockFetcher{Price: 100}
	c := NewCollector(mock, cache.NewMemoryCache(cache.DefaultTTLs()), nil)

	first, err := c.GetSeries(ctx, "aapl", model.TimeFrameDay)
	require.NoError(t, err)
	require.Len(t, first, 5, "pivot series is the tail of the lookback")

	history, err := c.GetHistory(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	require.Len(t, history, 30)
	assert.Equal(t, history[25:], first)
	assert.Equal(t, 1, mock.Calls(), "both views share one cached fetch")

	second, err := c.GetSeries(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.Calls())

	_, err = c.GetSeries(ctx, "AAPL", model.TimeFrameWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())

	require.NoError(t, c.ClearCache(ctx, "aapl"))
	_, err = c.GetSeries(ctx, "AAPL", model.TimeFrameDay)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.Calls())
}

func TestGetSeries_Unavailable(t *testing.T) {
	ctx := context.Background()
	c := NewCollector(&MockFetcher{}, cache.NewMemoryCache(cache.DefaultTTLs()), nil)

	bars, err := c.GetSeries(ctx, "NOPE", model.TimeFrameDay)
	require.NoError(t, err)
	assert.Nil(t, bars)

	_, err = c.GetSeries(ctx, " ", model.TimeFrameDay)
	assert.Error(t, err)
}

func TestGetSeries_FetchError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Err: boom}, cache.NewMemoryCache(cache.DefaultTTLs()), nil)
	_, err := c.GetSeries(context.Background(), "AAPL", model.TimeFrameDay)
	require.ErrorIs(t, err, boom)
}

func TestGetAllTimeframes(t *testing.T) {
	mock := &MockFetcher{
		Price: 100,
		Data:  map[model.TimeFrame][]model.OHLCV{model.TimeFrameYear: nil},
	}
	c := NewCollector(mock, cache.NewMemoryCache(cache.DefaultTTLs()), nil)

	all := c.GetAllTimeframes(context.Background(), "AAPL")
	assert.Len(t, all, len(model.AllTimeFrames)-1)
	assert.NotContains(t, all, model.TimeFrameYear)
	assert.Contains(t, all, model.TimeFrameDay)
}

func TestGetHistories(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	c := NewCollector(mock, cache.NewMemoryCache(cache.DefaultTTLs()), nil)

	tfs := []model.TimeFrame{model.TimeFrameDay, model.TimeFrameWeek, model.TimeFrameMonth}
	all := c.GetHistories(context.Background(), "AAPL", tfs)
	require.Len(t, all, 3)
	for _, tf := range tfs {
		assert.Len(t, all[tf], 30, tf)
	}
}

func TestSpans_CoverAnalyzerWarmup(t *testing.T) {
	opts := strategy.DefaultOptions()
	need := opts.MinBars + opts.RSIPeriod
	for _, tf := range model.AllTimeFrames {
		s, ok := spanFor(tf)
		require.True(t, ok, tf)
		assert.GreaterOrEqual(t, s.Bars, need, tf)
		assert.Less(t, s.Pivot, s.Bars, tf)
	}
}

func TestYahooFetcher_RequestsAnalyzerLookback(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", nil, 0)
	for _, tf := range []model.TimeFrame{model.TimeFrameDay, model.TimeFrameWeek, model.TimeFrameMonth} {
		_, err := f.FetchBars(context.Background(), "AAPL", tf)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"interval=1d&range=3mo",
		"interval=1wk&range=1y",
		"interval=1mo&range=5y",
	}, queries)
}

func TestVsTraderFetcher_RequestsAnalyzerLookback(t *testing.T) {
	var limits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Path+"?"+r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "", "", time.UTC)
	for _, tf := range []model.TimeFrame{model.TimeFrameDay, model.TimeFrameWeek, model.TimeFrameMonth} {
		_, err := f.FetchBars(context.Background(), "AAPL", tf)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"/api/v1/bars/daily?63",
		"/api/v1/bars/weekly?52",
		"/api/v1/bars/monthly?60",
	}, limits)
}

func TestPeriodStart(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, berlin) }
	// Thursday 2024-08-15 14:30 CET
	now := time.Date(2024, 8, 15, 14, 30, 0, 0, berlin)

	tests := []struct {
		name string
		tf   model.TimeFrame
		now  time.Time
		want time.Time
	}{
		{"day", model.TimeFrameDay, now, at(2024, 8, 15)},
		{"week from thursday", model.TimeFrameWeek, now, at(2024, 8, 12)},
		{"week on monday", model.TimeFrameWeek, at(2024, 8, 12).Add(time.Minute), at(2024, 8, 12)},
		{"week on sunday", model.TimeFrameWeek, at(2024, 8, 18).Add(23 * time.Hour), at(2024, 8, 12)},
		{"week across month", model.TimeFrameWeek, at(2024, 9, 1), at(2024, 8, 26)},
		{"month", model.TimeFrameMonth, now, at(2024, 8, 1)},
		{"quarter q3", model.TimeFrameQuarter, now, at(2024, 7, 1)},
		{"quarter first month", model.TimeFrameQuarter, at(2024, 4, 1), at(2024, 4, 1)},
		{"quarter last month", model.TimeFrameQuarter, at(2024, 12, 31), at(2024, 10, 1)},
		{"quarter q1", model.TimeFrameQuarter, at(2024, 3, 31), at(2024, 1, 1)},
		{"half year h2", model.TimeFrameHalfYear, now, at(2024, 7, 1)},
		{"half year june", model.TimeFrameHalfYear, at(2024, 6, 30), at(2024, 1, 1)},
		{"year", model.TimeFrameYear, now, at(2024, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodStart(tt.tf, tt.now, berlin)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	// 23:30 UTC on Sunday is already Monday in CET.
	got := PeriodStart(model.TimeFrameWeek, time.Date(2024, 8, 18, 23, 30, 0, 0, time.UTC), berlin)
	assert.True(t, at(2024, 8, 19).Equal(got))
}

func monthlyBars(from time.Time, n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{Time: from.AddDate(0, i, 0), Open: float64(i), High: float64(i) + 1, Low: float64(i) - 1, Close: float64(i)}
	}
	return bars
}

func TestPivotWindow(t *testing.T) {
	bars := monthlyBars(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 56) // through Aug 2024
	now := time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)

	quarter := pivotWindow(bars, model.TimeFrameQuarter, now)
	require.Len(t, quarter, 2)
	assert.Equal(t, time.July, quarter[0].Time.Month())

	half := pivotWindow(bars, model.TimeFrameHalfYear, now)
	require.Len(t, half, 2)
	assert.Equal(t, time.July, half[0].Time.Month())

	year := pivotWindow(bars, model.TimeFrameYear, now)
	require.Len(t, year, 8)
	assert.Equal(t, time.January, year[0].Time.Month())
	assert.Equal(t, 2024, year[0].Time.Year())

	month := pivotWindow(bars, model.TimeFrameMonth, now)
	require.Len(t, month, 3, "untrimmed frames keep their tail")

	// First month of a quarter still yields two bars.
	early := pivotWindow(bars[:52], model.TimeFrameQuarter, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	require.Len(t, early, 2)
	assert.Equal(t, time.March, early[0].Time.Month())
	assert.Equal(t, time.April, early[1].Time.Month())
}

func TestPeriods(t *testing.T) {
	c := NewCollector(&MockFetcher{}, cache.NewMemoryCache(cache.DefaultTTLs()), nil)
	c.now = func() time.Time { return time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC) }

	periods := c.Periods(time.UTC)
	require.Len(t, periods, len(model.AllTimeFrames))
	assert.Equal(t, model.TimeFrameWeek, periods[1].TimeFrame)
	assert.Equal(t, "Weekly", periods[1].Label)
	assert.Equal(t, time.Date(2024, 8, 12, 0, 0, 0, 0, time.UTC), periods[1].Start)
	assert.Equal(t, "1wk", periods[1].Interval)
	assert.Equal(t, "1y", periods[1].Lookback)
}

func TestAggregateDailyToWeekly(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
	var daily []model.OHLCV
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := float64(100 + i)
		daily = append(daily, model.OHLCV{Time: d, Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 10})
	}

	weekly := aggregateDailyToWeekly(daily)
	require.Len(t, weekly, 2)
	assert.Equal(t, model.OHLCV{Time: start, Open: 100, High: 105, Low: 99, Close: 104.5, Volume: 50}, weekly[0])
	assert.Equal(t, 107.0, weekly[1].Open)
	assert.Equal(t, 109.5, weekly[1].Close)
	assert.Nil(t, aggregateDailyToWeekly(nil))
}

func TestAggregateDailyToMonthly(t *testing.T) {
	daily := []model.OHLCV{
		{Time: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
		{Time: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Open: 11, High: 15, Low: 8, Close: 14, Volume: 1},
		{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Open: 14, High: 16, Low: 13, Close: 15, Volume: 1},
	}
	monthly := aggregateDailyToMonthly(daily)
	require.Len(t, monthly, 2)
	assert.Equal(t, 15.0, monthly[0].High)
	assert.Equal(t, 8.0, monthly[0].Low)
	assert.Equal(t, 14.0, monthly[0].Close)
	assert.Equal(t, 2.0, monthly[0].Volume)
}

const chartJSON = `{"chart":{"result":[{"timestamp":[1709542800,1709629200,1709715600],
"indicators":{"quote":[{"open":[100,null,102],"high":[101,null,104],"low":[99,null,101],
"close":[100.5,null,103],"volume":[1000,null,3000]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	berlin := time.FixedZone("CET", 3600)
	f := NewYahooFetcher(srv.URL, "", berlin, 0)
	bars, err := f.FetchBars(context.Background(), "SPX", model.TimeFrameWeek)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Equal(t, "interval=1wk&range=1y", gotQuery)
	require.Len(t, bars, 2, "null bar skipped")
	assert.Equal(t, 102.0, bars[1].Open)
	assert.Equal(t, 3000.0, bars[1].Volume)
	assert.Equal(t, berlin, bars[0].Time.Location())
}

func TestYahooFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "MISSING") {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", nil, 0)
	bars, err := f.FetchBars(context.Background(), "MISSING", model.TimeFrameDay)
	require.NoError(t, err)
	assert.Nil(t, bars)

	_, err = f.FetchBars(context.Background(), "AAPL", model.TimeFrameDay)
	assert.Error(t, err)

	_, err = f.FetchBars(context.Background(), "AAPL", model.TimeFrame("2h"))
	assert.Error(t, err)
}

func TestVsTraderFetcher_WeeklyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		if strings.HasSuffix(r.URL.Path, "/weekly") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[
			{"timestamp":1709715600,"open":2,"high":3,"low":1,"close":2.5,"volume":5},
			{"timestamp":1709542800,"open":1,"high":2,"low":0.5,"close":1.5,"volume":5}
		]`)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "key", "", time.UTC)
	bars, err := f.FetchBars(context.Background(), "AAPL", model.TimeFrameWeek)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.0, bars[0].Open)
	assert.Equal(t, 2.5, bars[0].Close)
	assert.Equal(t, 10.0, bars[0].Volume)
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher(Source{Provider: "yahoo"})
	require.NoError(t, err)
	assert.Equal(t, "yahoo", f.Name())

	f, err = NewFetcher(Source{Provider: "vstrader", BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, "vstrader", f.Name())

	f, err = NewFetcher(Source{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", f.Name())

	_, err = NewFetcher(Source{Provider: "vstrader"})
	assert.Error(t, err)
	_, err = NewFetcher(Source{Provider: "bloomberg"})
	assert.Error(t, err)
}
