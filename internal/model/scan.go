package model

import (
	"cmp"
	"slices"
	"time"

	"github.com/guregu/null/v6"
)

// OutcomeStatus tells whether a symbol made it into a scan table.
type OutcomeStatus string

const (
	StatusScored  OutcomeStatus = "scored"
	StatusSkipped OutcomeStatus = "skipped"
)

// SkipReason classifies why a symbol was left out of a scan.
type SkipReason string

const (
	ReasonNone                SkipReason = ""
	ReasonDataUnavailable     SkipReason = "data_unavailable"
	ReasonInsufficientHistory SkipReason = "insufficient_history"
	ReasonScoringFailed       SkipReason = "scoring_failed"
)

// SymbolOutcome is the per-symbol record of a scan.
type SymbolOutcome struct {
	Symbol string        `json:"symbol"`
	Status OutcomeStatus `json:"status"`
	Reason SkipReason    `json:"reason,omitempty"`
	Bars   int           `json:"bars"`
	Error  string        `json:"error,omitempty"`
}

// ScanReport is the result of scanning a universe.
// Results holds scored symbols only, in input order.
type ScanReport struct {
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Results   []FlowScore     `json:"results"`
	Outcomes  []SymbolOutcome `json:"outcomes"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// Lookup returns the scored row for symbol.
func (r *ScanReport) Lookup(symbol string) (FlowScore, bool) {
	for _, s := range r.Results {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return FlowScore{}, false
}

// Skipped returns the outcomes of symbols left out of the table.
func (r *ScanReport) Skipped() []SymbolOutcome {
	var out []SymbolOutcome
	for _, o := range r.Outcomes {
		if o.Status == StatusSkipped {
			out = append(out, o)
		}
	}
	return out
}

// ByQuietScore returns the results sorted by quiet score, highest first.
func (r *ScanReport) ByQuietScore() []FlowScore {
	return sortedBy(r.Results, func(s FlowScore) null.Float { return s.QuietScore })
}

// ByCrowdedScore returns the results sorted by crowded score, highest first.
func (r *ScanReport) ByCrowdedScore() []FlowScore {
	return sortedBy(r.Results, func(s FlowScore) null.Float { return s.CrowdedScore })
}

// sortedBy sorts a copy descending; undefined scores go last.
func sortedBy(rows []FlowScore, key func(FlowScore) null.Float) []FlowScore {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b FlowScore) int {
		ka, kb := key(a), key(b)
		switch {
		case !ka.Valid && !kb.Valid:
			return 0
		case !ka.Valid:
			return 1
		case !kb.Valid:
			return -1
		}
		return cmp.Compare(kb.Float64, ka.Float64)
	})
	return out
}
