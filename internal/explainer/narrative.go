package explainer

import (
	"fmt"
	"strings"

	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
)

// Rules are the thresholds of the narrative rule chain.
type Rules struct {
	LowR2         float64
	HighBeta      float64
	SectorMargin  float64
	CrowdZ        float64
	Overbought    float64
	MinCrowdFlags int
	JumpRate      float64
}

// DefaultRules returns the stock narrative thresholds.
func DefaultRules() Rules {
	return Rules{
		LowR2:         0.25,
		HighBeta:      1.2,
		SectorMargin:  0.15,
		CrowdZ:        1.0,
		Overbought:    70,
		MinCrowdFlags: 2,
		JumpRate:      0.12,
	}
}

const (
	driverIdiosyncratic = "Recently the stock appears more **idiosyncratic**, with low explanatory power from the broad market. " +
		"The move is likely driven by company-specific, event-driven, or thematic factors."
	driverHighBeta = "The stock shows **high beta** to the broad market and behaves more like a risk-on / risk-off amplifier."
	driverModerate = "The stock has moderate correlation with the market, suggesting a mix of beta exposure and idiosyncratic drivers."

	sectorBetaFmt     = "The move appears more aligned with **sector beta**, with stronger explanatory power from %s than %s."
	sectorSingleStock = "Low explanatory power from the sector further supports a **single-stock narrative or event-driven** dynamic."

	crowdingPrefix = "Current signals suggest **crowding / fragility**, including: "
	crowdingAdvice = "From a PM perspective, it may be preferable to wait for pullbacks or volume compression before adding risk, " +
		"or to trail stops higher rather than chasing strength."
	noCrowding = "No clear signs of late-stage crowding at the moment (volume and volatility are not jointly elevated, " +
		"and acceleration remains contained)."

	shapeJump  = "Price action appears more **jump-driven**, with a higher frequency of gaps or large moves, often associated with news flow or positioning shifts."
	shapeGrind = "Price action appears more **grind-up / trend-like**, consistent with gradual re-rating or quiet accumulation."
)

// Crowding flag names, in the order they are listed.
const (
	FlagVolume       = "elevated trading volume"
	FlagVolatility   = "volatility expansion"
	FlagAcceleration = "price acceleration (parabolic risk)"
	FlagOverbought   = "overbought RSI conditions"
)

// Narrate renders the rule chain over m: driver, sector comparison, crowding
// and shape, joined by spaces. A rule whose inputs are undefined does not fire.
func Narrate(m model.ExplainMetrics, sectorProxy, marketProxy string, r Rules) string {
	var parts []string

	switch {
	case below(m.R2Market, r.LowR2):
		parts = append(parts, driverIdiosyncratic)
	case above(m.BetaMarket, r.HighBeta):
		parts = append(parts, driverHighBeta)
	default:
		parts = append(parts, driverModerate)
	}

	if sectorProxy != "" && m.R2Sector.Valid {
		switch {
		case m.R2Market.Valid && m.R2Sector.Float64 > m.R2Market.Float64+r.SectorMargin:
			parts = append(parts, fmt.Sprintf(sectorBetaFmt, sectorProxy, marketProxy))
		case m.R2Sector.Float64 < r.LowR2:
			parts = append(parts, sectorSingleStock)
		}
	}

	if flags := CrowdingFlags(m, r); len(flags) >= r.MinCrowdFlags {
		parts = append(parts, crowdingPrefix+strings.Join(flags, ", ")+".", crowdingAdvice)
	} else {
		parts = append(parts, noCrowding)
	}

	if above(m.GapJumpRate, r.JumpRate) || above(m.BigMoveRate, r.JumpRate) {
		parts = append(parts, shapeJump)
	} else {
		parts = append(parts, shapeGrind)
	}

	return strings.Join(parts, " ")
}

// CrowdingFlags lists the crowding conditions m meets.
func CrowdingFlags(m model.ExplainMetrics, r Rules) []string {
	var flags []string
	if above(m.VolZ, r.CrowdZ) {
		flags = append(flags, FlagVolume)
	}
	if above(m.ATRZ, r.CrowdZ) {
		flags = append(flags, FlagVolatility)
	}
	if above(m.AccelZ, r.CrowdZ) {
		flags = append(flags, FlagAcceleration)
	}
	if above(m.RSI, r.Overbought) {
		flags = append(flags, FlagOverbought)
	}
	return flags
}

func above(v null.Float, th float64) bool { return v.Valid && v.Float64 > th }

func below(v null.Float, th float64) bool { return v.Valid && v.Float64 < th }
