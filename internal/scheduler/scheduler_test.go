package scheduler

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"FlowRadar/internal/collector"
	"FlowRadar/internal/explainer"
	"FlowRadar/internal/model"
	"FlowRadar/internal/recorder"
	"FlowRadar/internal/scanner"
	"FlowRadar/internal/sector"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

type captureSender struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

type staticMeta map[string]model.SectorInfo

func (s staticMeta) Lookup(_ context.Context, symbol string) model.SectorInfo { return s[symbol] }

func closes(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 3*math.Sin(float64(i)/4+phase) + float64(i)*0.1
	}
	return out
}

func newScheduler(t *testing.T) (*Scheduler, *captureSender) {
	p := &collector.MockProvider{Bars: map[string][]model.OHLCV{
		"AAPL": collector.BarsFromCloses(t0, closes(200, 0), 0.01, 1e6),
		"SPY":  collector.BarsFromCloses(t0, closes(200, 0.3), 0.005, 1e7),
		"XLK":  collector.BarsFromCloses(t0, closes(200, 0.1), 0.005, 1e7),
		"NEW":  collector.BarsFromCloses(t0, closes(30, 0), 0.01, 1e6),
	}}
	meta := staticMeta{"AAPL": {Sector: null.StringFrom("Technology"), Industry: null.StringFrom("Consumer Electronics")}}
	send := &captureSender{}
	s := NewScheduler(context.Background(),
		scanner.New(p, scanner.DefaultOptions(), nil),
		explainer.New(p, explainer.DefaultOptions(), nil),
		sector.NewResolver(meta, nil),
		send, recorder.NewNoopRecorder(),
		Options{
			Universe: []string{"AAPL", "NEW"},
			TopN:     5,
			Window:   func(time.Time) (time.Time, time.Time) { return t0, t0.AddDate(2, 0, 0) },
		})
	return s, send
}

func TestHandleCommand_Scan(t *testing.T) {
	s, _ := newScheduler(t)
	reply := s.HandleCommand("/scan")
	assert.Contains(t, reply, "<b>AAPL</b>")
	assert.Contains(t, reply, "NEW(insufficient_history)")
}

func TestHandleCommand_Explain(t *testing.T) {
	s, _ := newScheduler(t)
	reply := s.HandleCommand("/explain aapl")
	assert.Contains(t, reply, "<b>AAPL</b>")
	assert.Contains(t, reply, "板块: XLK")

	reply = s.HandleCommand("/explain MISSING")
	assert.Contains(t, reply, "MISSING 解读失败")

	assert.Contains(t, s.HandleCommand("/explain"), "用法")
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newScheduler(t)
	assert.Equal(t, helpText, s.HandleCommand("hello"))
	assert.Equal(t, helpText, s.HandleCommand("   "))
}

func TestRunScanNow_Sends(t *testing.T) {
	s, send := newScheduler(t)
	s.RunScanNow()
	require.Len(t, send.sent, 1)
	assert.Contains(t, send.sent[0], "已评分: 1 | 跳过: 1")
}

func TestRegister(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.Register("0 30 16 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}
