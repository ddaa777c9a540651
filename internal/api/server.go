// Package api exposes pivot analysis and the watchlist over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"PivotSentinel/internal/analysis"
	"PivotSentinel/internal/collector"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/recorder"
	"PivotSentinel/internal/watchlist"
)

// Scanner runs a watchlist scan on demand.
type Scanner interface {
	RunScan(ctx context.Context, trigger model.TriggerType) (*recorder.ScanRun, error)
}

// API holds the handler dependencies. Scanner and Recorder may be nil;
// a nil Location means UTC.
type API struct {
	Collector       *collector.Collector
	Engine          *analysis.Engine
	Watchlist       *watchlist.Manager
	Scanner         Scanner
	Recorder        recorder.Recorder
	SetupTimeFrames []model.TimeFrame
	Location        *time.Location
}

// Router builds the chi router with all routes mounted.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    "healthy",
			"source":  api.Collector.Source(),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/api/stock-data", api.HandleStockData)
	r.Get("/api/pivot-levels", api.HandlePivotLevels)
	r.Get("/api/pivot-analysis", api.HandlePivotAnalysis)
	r.Get("/api/pivot-history", api.HandlePivotHistory)
	r.Get("/api/period-info", api.HandlePeriodInfo)
	r.Get("/api/setup-history", api.HandleSetupHistory)

	r.Get("/api/watchlist", api.HandleGetWatchlist)
	r.Post("/api/watchlist", api.HandleAddToWatchlist)
	r.Delete("/api/watchlist", api.HandleRemoveFromWatchlist)

	r.Post("/api/scan", api.HandleScan)
	return r
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	})
}
