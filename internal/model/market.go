package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the bar satisfies the price invariants.
func (b OHLCV) Valid() bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 || b.Volume < 0 {
		return false
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	return true
}

// DayKey identifies the trading day of a bar, used to align two series.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PriceSeries holds raw price data for one symbol over a requested range.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}
