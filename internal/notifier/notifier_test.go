package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownBoldToHTML(t *testing.T) {
	got := MarkdownBoldToHTML("a **high beta** name & <b>raw</b> **x**")
	assert.Equal(t, "a <b>high beta</b> name &amp; &lt;b&gt;raw&lt;/b&gt; <b>x</b>", got)
}

func TestFormatScanReport(t *testing.T) {
	r := &model.ScanReport{
		StartedAt: time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Results: []model.FlowScore{
			{Symbol: "AAA", QuietScore: null.FloatFrom(0.2), CrowdedScore: null.FloatFrom(0.9), RSI: null.FloatFrom(81), Label: model.LabelLateCrowded},
			{Symbol: "BBB", QuietScore: null.FloatFrom(0.8), Label: model.LabelQuietAccumulation},
			{Symbol: "CCC", QuietScore: null.FloatFrom(0.5), CrowdedScore: null.FloatFrom(0.1), Label: model.LabelNeutral},
		},
		Outcomes: []model.SymbolOutcome{
			{Symbol: "AAA", Status: model.StatusScored},
			{Symbol: "BBB", Status: model.StatusScored},
			{Symbol: "CCC", Status: model.StatusScored},
			{Symbol: "DDD", Status: model.StatusSkipped, Reason: model.ReasonInsufficientHistory},
		},
	}

	text := FormatScanReport(r, 2)
	assert.Contains(t, text, "2024-05-01")
	assert.Contains(t, text, "已评分: 3 | 跳过: 1")
	assert.Contains(t, text, "1. <b>BBB</b> 0.800")
	assert.Contains(t, text, "2. <b>CCC</b> 0.500")
	assert.Contains(t, text, "1. <b>AAA</b> 0.900 | RSI 81 | Late Crowded")
	assert.Contains(t, text, "DDD(insufficient_history)")

	quiet := text[:strings.Index(text, "Late Crowded 排名")]
	assert.NotContains(t, quiet, "AAA", "top 2 only")
}

func TestFormatExplanation(t *testing.T) {
	e := &model.Explanation{
		Metrics: model.ExplainMetrics{
			Symbol: "NVDA", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			MarketProxy: "SPY", SectorProxy: "SOXX",
			BetaMarket: null.FloatFrom(1.45),
		},
		Narrative: "The stock shows **high beta** to the broad market.",
	}
	text := FormatExplanation(e)
	assert.Contains(t, text, "<b>NVDA</b> | 2024-05-01")
	assert.Contains(t, text, "板块: SOXX")
	assert.Contains(t, text, "beta_vs_market: 1.450")
	assert.Contains(t, text, "r2_vs_market: n/a")
	assert.Contains(t, text, "<b>high beta</b>")
}

func newTestNotifier(t *testing.T, h http.HandlerFunc) *TelegramNotifier {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("tok", "chat", "")
	n.BaseURL = srv.URL
	return n
}

func TestSend(t *testing.T) {
	var got map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottok/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "chat", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSendWithBackoff(t *testing.T) {
	var calls atomic.Int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.sendWithBackoff(context.Background(), "x", 3, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-100)
	err := n.sendWithBackoff(context.Background(), "x", 1, time.Millisecond)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
}

func TestDispatch(t *testing.T) {
	var sent []string
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		sent = append(sent, body["text"].(string))
	})

	updates := []telegramUpdate{{UpdateID: 7}, {UpdateID: 8}, {UpdateID: 9}}
	updates[1].Message = &struct {
		Text string `json:"text"`
	}{Text: " /scan "}
	updates[2].Message = &struct {
		Text string `json:"text"`
	}{Text: "/quiet"}

	var commands []string
	offset := n.dispatch(context.Background(), updates, 0, func(cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/scan" {
			return "ok"
		}
		return ""
	})

	assert.Equal(t, 10, offset)
	assert.Equal(t, []string{"/scan", "/quiet"}, commands)
	assert.Equal(t, []string{"ok"}, sent)
}
