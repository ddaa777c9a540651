package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"PivotSentinel/internal/analysis"
	"PivotSentinel/internal/collector"
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/notifier"
	"PivotSentinel/internal/recorder"
	"PivotSentinel/internal/watchlist"
)

// ErrScanInProgress is returned when a scan is requested while one is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Collector       *collector.Collector
	Engine          *analysis.Engine
	Watchlist       *watchlist.Manager
	Notifier        notifier.Notifier
	Recorder        recorder.Recorder
	SetupTimeFrames []model.TimeFrame
}

// Scheduler runs watchlist scans on a cron schedule and answers bot commands.
type Scheduler struct {
	cron *cron.Cron
	deps Deps
	ctx  context.Context
	now  func() time.Time

	scanMu sync.Mutex

	mu     sync.Mutex
	active map[string]model.Direction // symbol|tf -> active DeMark side
	last   *recorder.ScanRun
	errs   []string
}

// NewScheduler creates a new Scheduler. Cron tasks run with ctx.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	if deps.Notifier == nil {
		deps.Notifier = notifier.NoopNotifier{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if len(deps.SetupTimeFrames) == 0 {
		deps.SetupTimeFrames = []model.TimeFrame{model.TimeFrameDay, model.TimeFrameWeek, model.TimeFrameMonth}
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		deps:   deps,
		ctx:    ctx,
		now:    time.Now,
		active: make(map[string]model.Direction),
	}
}

// RegisterAll registers the scan and summary tasks. An empty schedule skips the task.
func (s *Scheduler) RegisterAll(scanCron, summaryCron string) error {
	if scanCron != "" {
		if _, err := s.cron.AddFunc(scanCron, s.scheduledScan); err != nil {
			return fmt.Errorf("register scan task: %w", err)
		}
	}
	if summaryCron != "" {
		if _, err := s.cron.AddFunc(summaryCron, s.summaryTask); err != nil {
			return fmt.Errorf("register summary task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Infof("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Infof("scheduler stopped")
}

func (s *Scheduler) scheduledScan() {
	if _, err := s.RunScan(s.ctx, model.TriggerScheduled); err != nil {
		logger.Errorf("scheduled scan: %v", err)
	}
}

func (s *Scheduler) summaryTask() {
	s.trySend(s.ctx, s.Summary())
}

// Summary renders the last scan run.
func (s *Scheduler) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return "No scan has run yet."
	}
	return notifier.FormatScanSummary(s.last.Trigger, s.last.StartedAt, s.last.Symbols, s.last.SetupsFound, s.errs)
}

// LastScan returns a copy of the most recent scan run, if any.
func (s *Scheduler) LastScan() (recorder.ScanRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return recorder.ScanRun{}, false
	}
	return *s.last, true
}

// RunScan analyzes every watchlist symbol, persists the results and alerts
// on DeMark setups that became active since the previous scan.
func (s *Scheduler) RunScan(ctx context.Context, trigger model.TriggerType) (*recorder.ScanRun, error) {
	if !s.scanMu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.scanMu.Unlock()

	started := s.now()
	run := &recorder.ScanRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: started,
	}
	symbols := s.deps.Watchlist.List()
	run.Symbols = len(symbols)
	log := logger.Get().With("scan_id", run.ID)
	log.Infof("scan started (%s): %d symbols", trigger, len(symbols))

	var errs []string
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", symbol, err))
			break
		}
		found, err := s.scanSymbol(ctx, run.ID, symbol)
		run.SetupsFound += found
		if err != nil {
			log.Warnf("scan %s: %v", symbol, err)
			errs = append(errs, fmt.Sprintf("%s: %v", symbol, err))
		}
	}
	run.Errors = len(errs)

	if err := s.deps.Recorder.RecordScan(ctx, run); err != nil {
		log.Errorf("record scan: %v", err)
	}
	var scanErr error
	if len(errs) > 0 && len(errs) == len(symbols) {
		scanErr = fmt.Errorf("all %d symbols failed", len(symbols))
	}
	metrics.RecordScan(trigger, scanErr)
	metrics.RecordAnalysis("scan", started)

	s.mu.Lock()
	s.last = run
	s.errs = errs
	s.mu.Unlock()

	log.Infof("scan done: %d active setups, %d errors", run.SetupsFound, run.Errors)
	return run, nil
}

// scanSymbol returns the number of active DeMark setups of symbol.
func (s *Scheduler) scanSymbol(ctx context.Context, scanID, symbol string) (int, error) {
	series := s.deps.Collector.GetAllTimeframes(ctx, symbol)
	if len(series) == 0 {
		return 0, errors.New("no data")
	}

	started := time.Now()
	results := s.deps.Engine.AnalyzeAll(series)
	metrics.RecordAnalysis("pivots", started)

	date := s.now().Format("2006-01-02")
	found := 0
	for _, tf := range s.deps.Collector.Timeframes() {
		res, ok := results[tf]
		if !ok || !res.Available {
			s.track(symbol, tf, model.InactiveSignals())
			continue
		}
		if err := s.deps.Recorder.RecordPivots(ctx, &recorder.PivotSnapshot{
			ScanID: scanID, Symbol: symbol, Date: date, Result: res,
		}); err != nil {
			logger.Errorf("record pivots %s %s: %v", symbol, tf, err)
		}

		sig, active := res.Setups.Active()
		newly := s.track(symbol, tf, res.Setups)
		if !active {
			continue
		}
		found++
		metrics.RecordSetup(tf, sig.Direction)
		if err := s.deps.Recorder.RecordSignal(ctx, &recorder.SignalEvent{
			ScanID: scanID, Symbol: symbol, TimeFrame: tf, Signal: sig,
		}); err != nil {
			logger.Errorf("record signal %s %s: %v", symbol, tf, err)
		}
		if newly {
			s.trySend(ctx, notifier.FormatSignalAlert(symbol, tf, sig))
		}
	}

	started = time.Now()
	setups := s.deps.Engine.AnalyzeSetupsAll(s.deps.Collector.GetHistories(ctx, symbol, s.deps.SetupTimeFrames))
	metrics.RecordAnalysis("setups", started)
	for _, list := range setups {
		for _, setup := range list {
			if err := s.deps.Recorder.RecordSetup(ctx, &recorder.SetupEvent{
				ScanID: scanID, Symbol: symbol, Setup: setup,
			}); err != nil {
				logger.Errorf("record setup %s: %v", symbol, err)
			}
		}
	}
	return found, nil
}

// track stores the active side of symbol/tf and reports whether it changed
// to a new active side.
func (s *Scheduler) track(symbol string, tf model.TimeFrame, signals model.SetupSignals) bool {
	key := symbol + "|" + tf.String()
	var dir model.Direction
	if sig, ok := signals.Active(); ok {
		dir = sig.Direction
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active[key]
	if dir == "" {
		delete(s.active, key)
		return false
	}
	s.active[key] = dir
	return prev != dir
}

func (s *Scheduler) trySend(ctx context.Context, msg string) {
	if err := s.deps.Notifier.SendWithRetry(ctx, msg, 3); err != nil {
		logger.Errorf("telegram send failed: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // /pivots@MyBot
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/watch":
		return s.watch(ctx, arg)
	case "/unwatch":
		removed, err := s.deps.Watchlist.Remove(arg)
		switch {
		case err != nil:
			return "❌ " + err.Error()
		case !removed:
			return fmt.Sprintf("%s is not on the watchlist.", strings.ToUpper(arg))
		}
		s.forget(strings.ToUpper(arg))
		return fmt.Sprintf("✅ Removed %s.", strings.ToUpper(arg))
	case "/list":
		return notifier.FormatWatchlist(s.deps.Watchlist.List())
	case "/pivots":
		if arg == "" {
			return "Usage: /pivots SYMBOL"
		}
		symbol := strings.ToUpper(arg)
		results := s.deps.Engine.AnalyzeAll(s.deps.Collector.GetAllTimeframes(ctx, symbol))
		return notifier.FormatPivotReport(symbol, results, s.deps.Collector.Timeframes())
	case "/setups":
		if arg == "" {
			return "Usage: /setups SYMBOL"
		}
		symbol := strings.ToUpper(arg)
		series := s.deps.Collector.GetHistories(ctx, symbol, s.deps.SetupTimeFrames)
		return notifier.FormatSetups(symbol, s.deps.Engine.AnalyzeSetupsAll(series), s.deps.SetupTimeFrames)
	case "/scan":
		if _, err := s.RunScan(ctx, model.TriggerManual); err != nil {
			return "❌ " + err.Error()
		}
		return s.Summary()
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) watch(ctx context.Context, arg string) string {
	symbol, err := watchlist.Normalize(arg)
	if err != nil {
		return "Usage: /watch SYMBOL"
	}
	bars, err := s.deps.Collector.GetSeries(ctx, symbol, model.TimeFrameDay)
	if err != nil {
		return "❌ " + err.Error()
	}
	if len(bars) == 0 {
		return fmt.Sprintf("❌ No data for %s.", symbol)
	}
	added, err := s.deps.Watchlist.Add(symbol)
	switch {
	case err != nil:
		return "❌ " + err.Error()
	case !added:
		return fmt.Sprintf("%s is already on the watchlist.", symbol)
	}
	return fmt.Sprintf("✅ Watching %s.", symbol)
}

func (s *Scheduler) forget(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.active {
		if strings.HasPrefix(key, symbol+"|") {
			delete(s.active, key)
		}
	}
}
