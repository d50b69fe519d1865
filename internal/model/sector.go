package model

import "github.com/guregu/null/v6"

// SectorInfo is the raw classification metadata of a symbol.
type SectorInfo struct {
	Sector   null.String `json:"sector"`
	Industry null.String `json:"industry"`
}

// SectorMapping resolves a symbol to benchmark proxies.
type SectorMapping struct {
	Symbol        string      `json:"symbol"`
	Sector        null.String `json:"sector"`
	Industry      null.String `json:"industry"`
	SectorProxy   null.String `json:"sector_proxy"`
	IndustryProxy null.String `json:"industry_proxy"`
	ChosenProxy   null.String `json:"chosen_proxy"`
}
