// Package sector maps a symbol to sector and industry ETF proxies.
package sector

import (
	"context"
	"strings"

	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
)

// MetadataProvider returns sector/industry metadata for a symbol. It must fail
// open: an unknown symbol or a network error yields empty fields.
type MetadataProvider interface {
	Lookup(ctx context.Context, symbol string) model.SectorInfo
}

// SectorETFs maps an exact sector name to its SPDR proxy.
var SectorETFs = map[string]string{
	"Technology":             "XLK",
	"Financial Services":     "XLF",
	"Financial":              "XLF",
	"Healthcare":             "XLV",
	"Consumer Cyclical":      "XLY",
	"Consumer Defensive":     "XLP",
	"Communication Services": "XLC",
	"Industrials":            "XLI",
	"Energy":                 "XLE",
	"Basic Materials":        "XLB",
	"Utilities":              "XLU",
	"Real Estate":            "XLRE",
}

// IndustryHint maps an industry substring to a narrower proxy.
type IndustryHint struct {
	Contains string
	Proxy    string
}

// IndustryHints are checked in order; the first case-insensitive substring
// match wins.
var IndustryHints = []IndustryHint{
	{"Semiconductors", "SOXX"},
	{"Semiconductor Equipment", "SOXX"},
	{"Semiconductor", "SOXX"},
	{"Banks", "KBE"},
	{"Regional Banks", "KRE"},
	{"Software", "IGV"},
	{"Biotechnology", "XBI"},
	{"Internet Content & Information", "FDN"},
	{"Internet Retail", "XLY"},
	{"Oil & Gas E&P", "XOP"},
	{"Oil & Gas Equipment & Services", "OIH"},
	{"China", "MCHI"},
}

// Resolver resolves symbols to proxies. Overrides, keyed by upper-case symbol,
// replace the chosen proxy.
type Resolver struct {
	meta      MetadataProvider
	overrides map[string]string
}

// NewResolver creates a resolver. overrides may be nil.
func NewResolver(meta MetadataProvider, overrides map[string]string) *Resolver {
	o := make(map[string]string, len(overrides))
	for k, v := range overrides {
		o[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &Resolver{meta: meta, overrides: o}
}

// Resolve looks up metadata and picks the industry proxy when one matches,
// otherwise the sector proxy.
func (r *Resolver) Resolve(ctx context.Context, symbol string) model.SectorMapping {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var info model.SectorInfo
	if r.meta != nil {
		info = r.meta.Lookup(ctx, symbol)
	}

	m := model.SectorMapping{
		Symbol:        symbol,
		Sector:        info.Sector,
		Industry:      info.Industry,
		SectorProxy:   SectorProxy(info.Sector),
		IndustryProxy: IndustryProxy(info.Industry),
	}
	switch {
	case m.IndustryProxy.Valid:
		m.ChosenProxy = m.IndustryProxy
	case m.SectorProxy.Valid:
		m.ChosenProxy = m.SectorProxy
	}
	if p, ok := r.overrides[symbol]; ok {
		m.ChosenProxy = null.StringFrom(p)
	}

	log.Debug().
		Str("symbol", symbol).
		Str("sector", m.Sector.String).
		Str("industry", m.Industry.String).
		Str("proxy", m.ChosenProxy.String).
		Msg("sector resolved")
	return m
}

// SectorProxy returns the exact-match sector ETF.
func SectorProxy(sector null.String) null.String {
	if !sector.Valid {
		return null.String{}
	}
	if p, ok := SectorETFs[sector.String]; ok {
		return null.StringFrom(p)
	}
	return null.String{}
}

// IndustryProxy returns the first hinted ETF whose key occurs in industry.
func IndustryProxy(industry null.String) null.String {
	if !industry.Valid {
		return null.String{}
	}
	lower := strings.ToLower(industry.String)
	for _, h := range IndustryHints {
		if strings.Contains(lower, strings.ToLower(h.Contains)) {
			return null.StringFrom(h.Proxy)
		}
	}
	return null.String{}
}
