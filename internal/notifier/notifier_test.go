package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/model"
)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	fail    int
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return tgbotapi.Message{}, errors.New("telegram down")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeBot) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func newTestNotifier(bot *fakeBot) *TelegramNotifier {
	n := newTelegramNotifier(bot, 42)
	n.backoff = time.Millisecond
	return n
}

func TestSendUsesHTML(t *testing.T) {
	bot := &fakeBot{}
	n := newTestNotifier(bot)

	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	msgs := bot.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(42), msgs[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)
	assert.Equal(t, "<b>hi</b>", msgs[0].Text)
}

func TestSendWithRetry(t *testing.T) {
	bot := &fakeBot{fail: 2}
	n := newTestNotifier(bot)
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.Len(t, bot.messages(), 1)

	bot = &fakeBot{fail: 10}
	n = newTestNotifier(bot)
	err := n.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestSendCancelled(t *testing.T) {
	n := newTestNotifier(&fakeBot{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, "x"), context.Canceled)
}

func TestStartPolling(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update, 4)}
	n := newTestNotifier(bot)

	var got []string
	var mu sync.Mutex
	handler := func(_ context.Context, cmd string) string {
		mu.Lock()
		got = append(got, cmd)
		mu.Unlock()
		return "ok: " + cmd
	}

	bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "/list ", Chat: &tgbotapi.Chat{ID: 42}}}
	bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "/scan", Chat: &tgbotapi.Chat{ID: 7}}}
	bot.updates <- tgbotapi.Update{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, handler)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(bot.messages()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	assert.Equal(t, []string{"/list"}, got)
	mu.Unlock()
	assert.Equal(t, "ok: /list", bot.messages()[0].Text)
	bot.mu.Lock()
	assert.True(t, bot.stopped)
	bot.mu.Unlock()
}

func TestFormatPivotReport(t *testing.T) {
	res := model.EmptyResult(model.TimeFrameWeek)
	res.Available = true
	res.OHLC = model.OHLCSample{Open: 100, High: 1250.5, Low: 95, Close: 105}
	res.Standard.Levels = model.Levels{model.LevelP: 100, model.LevelR1: 105, model.LevelS1: 95}
	res.Standard.History = model.LevelHistory{
		model.LevelP:  {Touched: true, TouchDate: "05.03"},
		model.LevelR1: {Status: "○↑"},
	}
	res.Standard.Status = model.PivotStatus{State: model.PivotAbove, Distance: "+5.0%"}
	res.DeMark.Levels = model.Levels{model.LevelP: 101}
	res.Setups.Long = model.SetupSignal{Direction: model.Long, Active: true, Trigger: 101, Target: 110, DistancePercent: 4.76}

	out := FormatPivotReport("AAPL", map[model.TimeFrame]model.TimeFrameResult{
		model.TimeFrameWeek: res,
		model.TimeFrameDay:  model.EmptyResult(model.TimeFrameDay),
	}, model.AllTimeFrames)

	assert.Contains(t, out, "AAPL pivots")
	assert.Contains(t, out, "<b>Weekly</b>")
	assert.NotContains(t, out, "Daily")
	assert.Contains(t, out, "1,250.50")
	assert.Contains(t, out, "✓05.03")
	assert.Contains(t, out, "○↑")
	assert.Contains(t, out, "DeMark long setup")
	assert.Contains(t, out, "+4.76%")

	empty := FormatPivotReport("X", nil, model.AllTimeFrames)
	assert.Contains(t, empty, "No data available.")
}

func TestFormatSetups(t *testing.T) {
	s := model.Setup{
		Direction:     model.Long,
		Pattern:       model.PatternPivotBounce,
		Quality:       model.QualityA,
		TriggerLevel:  model.LevelS1,
		Entry:         100,
		StopLoss:      98,
		Target:        110,
		Probability:   70,
		RiskReward:    5,
		VolumeSurge:   2.1,
		TimeFrame:     model.TimeFrameDay,
		Trend:         model.TrendUp,
		RepeatedTests: 3,
		BestTime:      "09:30",
		Confirmations: map[string]bool{"volume": true, "trend": true, "cluster": false},
	}
	out := FormatSetups("MSFT", map[model.TimeFrame][]model.Setup{model.TimeFrameDay: {s}}, model.AllTimeFrames)
	assert.Contains(t, out, "Daily LONG")
	assert.Contains(t, out, "[A] pivot_bounce @ S1")
	assert.Contains(t, out, "Confirmed: trend, volume")
	assert.Contains(t, out, "Tested 3rd")
	assert.Contains(t, out, "Best time 09:30")

	assert.Contains(t, FormatSetups("MSFT", nil, model.AllTimeFrames), "No setups.")
}

func TestFormatScanSummaryAndWatchlist(t *testing.T) {
	out := FormatScanSummary(model.TriggerManual, time.Now(), 1200, 3, []string{"AAPL: <boom>"})
	assert.Contains(t, out, "Scan manual")
	assert.Contains(t, out, "Symbols: 1,200")
	assert.Contains(t, out, "&lt;boom&gt;")

	assert.Contains(t, FormatWatchlist(nil), "empty")
	assert.Contains(t, FormatWatchlist([]string{"AAPL", "DAX"}), "AAPL, DAX")
}
