package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// FlowIndicators holds the latest-bar inputs of the flow scorer.
// Invalid fields are statistics that are undefined at that bar.
type FlowIndicators struct {
	Date   time.Time
	VolZ   null.Float
	ATRZ   null.Float
	RSI    null.Float
	Sharpe null.Float
	AccelZ null.Float
}
