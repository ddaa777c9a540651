package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/recorder"
	"PivotSentinel/internal/scheduler"
	"PivotSentinel/internal/watchlist"
)

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
}

// HandleStockData returns the bars of one symbol and time frame.
func (api *API) HandleStockData(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	tf := model.TimeFrameDay
	if v := r.URL.Query().Get("timeframe"); v != "" {
		parsed, err := model.ParseTimeFrame(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		tf = parsed
	}

	bars, err := api.Collector.GetSeries(r.Context(), symbol, tf)
	if err != nil {
		logger.Errorf("stock data %s %s: %v", symbol, tf, err)
		WriteError(w, http.StatusBadGateway, "data source unavailable")
		return
	}
	if len(bars) == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no data for %s", symbol))
		return
	}
	WriteJSON(w, http.StatusOK, model.PriceSeries{
		Symbol:    symbol,
		TimeFrame: tf,
		Bars:      bars,
		FetchedAt: time.Now(),
	})
}

// HandlePivotLevels returns the pivot analysis of every configured time frame.
func (api *API) HandlePivotLevels(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	series := api.Collector.GetAllTimeframes(r.Context(), symbol)
	if len(series) == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no data for %s", symbol))
		return
	}

	started := time.Now()
	pivots := api.Engine.AnalyzeAll(series)
	metrics.RecordAnalysis("pivots", started)

	setups := make(map[model.TimeFrame]model.SetupSignals, len(pivots))
	for tf, res := range pivots {
		setups[tf] = res.Setups
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"setups": setups,
		"pivots": pivots,
	})
}

// HandlePivotAnalysis returns the graded setups over the setup time frames.
func (api *API) HandlePivotAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	series := api.Collector.GetHistories(r.Context(), symbol, api.SetupTimeFrames)
	if len(series) == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no data for %s", symbol))
		return
	}

	started := time.Now()
	byTF := api.Engine.AnalyzeSetupsAll(series)
	metrics.RecordAnalysis("setups", started)

	setups := []model.Setup{}
	for _, tf := range api.SetupTimeFrames {
		setups = append(setups, byTF[tf]...)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"setups": setups,
	})
}

// HandlePeriodInfo reports the start of the current period per time frame.
func (api *API) HandlePeriodInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"periods": api.Collector.Periods(api.Location),
	})
}

type watchlistRequest struct {
	Symbol string `json:"symbol"`
}

func decodeSymbol(r *http.Request) (string, error) {
	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}
	return watchlist.Normalize(req.Symbol)
}

func (api *API) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": api.Watchlist.List(),
	})
}

// HandleAddToWatchlist adds a symbol after checking that daily data exists.
func (api *API) HandleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol, err := decodeSymbol(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	bars, err := api.Collector.GetSeries(r.Context(), symbol, model.TimeFrameDay)
	if err != nil {
		logger.Errorf("validate %s: %v", symbol, err)
		WriteError(w, http.StatusBadGateway, "data source unavailable")
		return
	}
	if len(bars) == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no data for %s", symbol))
		return
	}

	added, err := api.Watchlist.Add(symbol)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	WriteJSON(w, status, map[string]interface{}{
		"symbol":  symbol,
		"added":   added,
		"symbols": api.Watchlist.List(),
	})
}

func (api *API) HandleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol, err := decodeSymbol(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	removed, err := api.Watchlist.Remove(symbol)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("%s is not on the watchlist", symbol))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"symbols": api.Watchlist.List(),
	})
}

// HandleScan runs a watchlist scan and returns its summary.
func (api *API) HandleScan(w http.ResponseWriter, r *http.Request) {
	if api.Scanner == nil {
		WriteError(w, http.StatusServiceUnavailable, "scanner disabled")
		return
	}
	run, err := api.Scanner.RunScan(r.Context(), model.TriggerAPI)
	switch {
	case errors.Is(err, scheduler.ErrScanInProgress):
		WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

// HandlePivotHistory returns the last persisted pivots and level hits.
func (api *API) HandlePivotHistory(w http.ResponseWriter, r *http.Request) {
	if api.Recorder == nil {
		WriteError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}
	symbol := symbolParam(r)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	tf, err := model.ParseTimeFrame(r.URL.Query().Get("timeframe"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, err := api.Recorder.LatestPivots(r.Context(), symbol, tf)
	if err != nil {
		logger.Errorf("latest pivots %s %s: %v", symbol, tf, err)
		WriteError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if latest == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no history for %s %s", symbol, tf))
		return
	}
	hits, err := api.Recorder.LevelHistory(r.Context(), symbol, tf)
	if err != nil {
		logger.Errorf("level history %s %s: %v", symbol, tf, err)
		WriteError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	views := make([]hitView, 0, len(hits))
	for _, h := range hits {
		views = append(views, hitView{LevelHit: h, TouchDate: h.DayMonth()})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"timeframe": tf,
		"latest":    latest,
		"hits":      views,
	})
}

type hitView struct {
	recorder.LevelHit
	TouchDate string `json:"touch_date"`
}

const defaultSetupHistory = 20

// HandleSetupHistory returns the most recently recorded setups of a symbol.
func (api *API) HandleSetupHistory(w http.ResponseWriter, r *http.Request) {
	if api.Recorder == nil {
		WriteError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}
	symbol := symbolParam(r)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	limit := defaultSetupHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	setups, err := api.Recorder.RecentSetups(r.Context(), symbol, limit)
	if err != nil {
		logger.Errorf("setup history %s: %v", symbol, err)
		WriteError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if setups == nil {
		setups = []recorder.StoredSetup{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"setups": setups,
	})
}
