package notifier

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
)

// FormatScanReport formats the top rows of both rankings of a scan.
func FormatScanReport(r *model.ScanReport, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📡 <b>FlowRadar 扫描</b> | %s\n", r.StartedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("已评分: %d | 跳过: %d | 耗时: %s\n\n",
		len(r.Results), len(r.Skipped()), r.Duration.Round(time.Millisecond)))

	b.WriteString("🟢 <b>Quiet Accumulation 排名:</b>\n")
	writeRanking(&b, r.ByQuietScore(), topN, func(s model.FlowScore) null.Float { return s.QuietScore })

	b.WriteString("\n🔴 <b>Late Crowded 排名:</b>\n")
	writeRanking(&b, r.ByCrowdedScore(), topN, func(s model.FlowScore) null.Float { return s.CrowdedScore })

	if skipped := r.Skipped(); len(skipped) > 0 {
		names := make([]string, 0, len(skipped))
		for _, o := range skipped {
			names = append(names, fmt.Sprintf("%s(%s)", html.EscapeString(o.Symbol), o.Reason))
		}
		b.WriteString(fmt.Sprintf("\n⚠️ 跳过: %s\n", strings.Join(names, ", ")))
	}
	return b.String()
}

func writeRanking(b *strings.Builder, rows []model.FlowScore, topN int, key func(model.FlowScore) null.Float) {
	if len(rows) == 0 {
		b.WriteString("  (无)\n")
		return
	}
	for i, s := range rows {
		if i >= topN {
			break
		}
		b.WriteString(fmt.Sprintf("  %d. <b>%s</b> %s | RSI %s | %s\n",
			i+1, html.EscapeString(s.Symbol), num(key(s), 3), num(s.RSI, 0), s.Label))
	}
}

// FormatExplanation formats a narrative explanation and its metric snapshot.
func FormatExplanation(e *model.Explanation) string {
	var b strings.Builder
	m := e.Metrics

	b.WriteString(fmt.Sprintf("🔍 <b>%s</b> | %s\n", html.EscapeString(m.Symbol), m.Date.Format("2006-01-02")))
	proxies := "基准: " + html.EscapeString(m.MarketProxy)
	if m.SectorProxy != "" {
		proxies += " | 板块: " + html.EscapeString(m.SectorProxy)
	}
	b.WriteString(proxies + "\n\n")

	b.WriteString("📈 <b>指标:</b>\n")
	for _, f := range m.Fields() {
		b.WriteString(fmt.Sprintf("  %s: %s\n", f.Name, num(f.Value, 3)))
	}

	b.WriteString("\n📝 <b>解读:</b>\n")
	b.WriteString(MarkdownBoldToHTML(e.Narrative))
	b.WriteString("\n")
	return b.String()
}

var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// MarkdownBoldToHTML escapes text for Telegram HTML and turns **x** into <b>x</b>.
func MarkdownBoldToHTML(s string) string {
	return boldRe.ReplaceAllString(html.EscapeString(s), "<b>$1</b>")
}

func num(v null.Float, prec int) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v.Float64)
}
