package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Label is the categorical regime assigned to a scored symbol.
type Label string

const (
	LabelLateCrowded       Label = "Late Crowded"
	LabelQuietAccumulation Label = "Quiet Accumulation"
	LabelNeutral           Label = "Neutral"
)

// FlowScore is the scorer output for one symbol at its latest bar.
type FlowScore struct {
	Symbol       string     `json:"symbol"`
	Date         time.Time  `json:"date"`
	QuietScore   null.Float `json:"quiet_score"`
	CrowdedScore null.Float `json:"crowded_score"`
	Label        Label      `json:"label"`
	RSI          null.Float `json:"rsi"`
	VolZ         null.Float `json:"vol_z"`
	ATRZ         null.Float `json:"atr_z"`
	Sharpe       null.Float `json:"sharpe"`
	AccelZ       null.Float `json:"accel_z"`
}
