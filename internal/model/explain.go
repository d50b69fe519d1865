package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// ExplainMetrics is the metric snapshot behind a narrative.
type ExplainMetrics struct {
	Symbol      string     `json:"symbol"`
	Date        time.Time  `json:"date"`
	MarketProxy string     `json:"market_proxy"`
	SectorProxy string     `json:"sector_proxy,omitempty"`
	BetaMarket  null.Float `json:"beta_vs_market"`
	R2Market    null.Float `json:"r2_vs_market"`
	BetaSector  null.Float `json:"beta_vs_sector"`
	R2Sector    null.Float `json:"r2_vs_sector"`
	VolZ        null.Float `json:"vol_z"`
	ATRZ        null.Float `json:"atr_z"`
	AccelZ      null.Float `json:"accel_z"`
	RSI         null.Float `json:"rsi"`
	GapJumpRate null.Float `json:"gap_jump_rate_60d"`
	BigMoveRate null.Float `json:"big_move_rate_60d"`
}

// MetricField is one named value of a snapshot.
type MetricField struct {
	Name  string
	Value null.Float
}

// Fields lists the numeric metrics in display order.
func (m ExplainMetrics) Fields() []MetricField {
	return []MetricField{
		{"beta_vs_market", m.BetaMarket},
		{"r2_vs_market", m.R2Market},
		{"beta_vs_sector", m.BetaSector},
		{"r2_vs_sector", m.R2Sector},
		{"vol_z", m.VolZ},
		{"atr_z", m.ATRZ},
		{"accel_z", m.AccelZ},
		{"rsi", m.RSI},
		{"gap_jump_rate_60d", m.GapJumpRate},
		{"big_move_rate_60d", m.BigMoveRate},
	}
}

// IndicatorRow is one dated row of the trailing indicator table.
type IndicatorRow struct {
	Date   time.Time  `json:"date"`
	Close  float64    `json:"close"`
	VolZ   null.Float `json:"vol_z"`
	ATRZ   null.Float `json:"atr_z"`
	AccelZ null.Float `json:"accel_z"`
	RSI    null.Float `json:"rsi"`
}

// Explanation bundles the snapshot, narrative text and trailing table for one symbol.
type Explanation struct {
	Metrics   ExplainMetrics `json:"metrics"`
	Narrative string         `json:"narrative"`
	Table     []IndicatorRow `json:"table"`
}
