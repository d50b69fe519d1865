package server

import (
	"errors"
	"strings"
	"time"

	"FlowRadar/internal/config"
	"FlowRadar/internal/explainer"
	"FlowRadar/internal/model"
	"FlowRadar/internal/recorder"
	"FlowRadar/internal/scanner"
	"FlowRadar/internal/sector"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Handler serves the scan, explain and sector endpoints.
type Handler struct {
	Scanner   *scanner.Scanner
	Explainer *explainer.Explainer
	Resolver  *sector.Resolver
	Recorder  recorder.Recorder
	Universe  []string
	// Window returns the default [start, end) range as of now.
	Window func(now time.Time) (time.Time, time.Time)
}

// ScanRequest is the query of GET /api/scan. Symbols is comma separated and
// defaults to the configured universe.
type ScanRequest struct {
	Symbols string `query:"symbols" validate:"max=2000"`
	Start   string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End     string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// ExplainRequest is the query of GET /api/explain. Without an explicit sector
// the proxy is resolved from metadata unless auto_sector is false.
type ExplainRequest struct {
	Symbol     string `query:"symbol" validate:"required,max=16"`
	Sector     string `query:"sector" validate:"max=16"`
	AutoSector string `query:"auto_sector" default:"true" validate:"oneof=true false"`
	Start      string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End        string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// ScanResponse carries the report and its two rankings.
type ScanResponse struct {
	Report    *model.ScanReport `json:"report"`
	ByQuiet   []model.FlowScore `json:"by_quiet"`
	ByCrowded []model.FlowScore `json:"by_crowded"`
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/scan", h.Scan)
	api.GET("/explain", h.Explain)
	api.GET("/sector/:symbol", h.Sector)
	e.GET("/healthz", h.Health)
}

// Scan runs a universe scan.
func (h *Handler) Scan(c echo.Context) error {
	var req ScanRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	start, end, err := h.window(req.Start, req.End)
	if err != nil {
		return BadRequestResponse(c, []ValidationError{{Code: "ERR_RANGE", Field: "End", Message: err.Error()}})
	}
	symbols := h.Universe
	if req.Symbols != "" {
		symbols = config.SplitSymbols(req.Symbols)
	}

	report := h.Scanner.Scan(c.Request().Context(), symbols, start, end)
	if err := h.Recorder.RecordScan(report); err != nil {
		log.Error().Err(err).Msg("record scan")
	}
	return SuccessResponse(c, ScanResponse{
		Report:    report,
		ByQuiet:   report.ByQuietScore(),
		ByCrowded: report.ByCrowdedScore(),
	})
}

// Explain builds a narrative explanation for one symbol.
func (h *Handler) Explain(c echo.Context) error {
	var req ExplainRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	start, end, err := h.window(req.Start, req.End)
	if err != nil {
		return BadRequestResponse(c, []ValidationError{{Code: "ERR_RANGE", Field: "End", Message: err.Error()}})
	}

	ctx := c.Request().Context()
	proxy := req.Sector
	if proxy == "" && req.AutoSector == "true" {
		proxy = h.Resolver.Resolve(ctx, req.Symbol).ChosenProxy.String
	}

	e, err := h.Explainer.Explain(ctx, req.Symbol, proxy, start, end)
	if err != nil {
		if errors.Is(err, model.ErrDataUnavailable) {
			return UnavailableResponse(c, err.Error())
		}
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("explain")
		return InternalServerErrorResponse(c)
	}
	if err := h.Recorder.RecordExplanation(e); err != nil {
		log.Error().Err(err).Msg("record explanation")
	}
	return SuccessResponse(c, e)
}

// Sector resolves the benchmark proxies of a symbol.
func (h *Handler) Sector(c echo.Context) error {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" || len(symbol) > 16 {
		return BadRequestResponse(c, []ValidationError{{Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required"}})
	}
	return SuccessResponse(c, h.Resolver.Resolve(c.Request().Context(), symbol))
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *Handler) window(startStr, endStr string) (time.Time, time.Time, error) {
	start, end := h.Window(time.Now())
	var err error
	if startStr != "" {
		if start, err = time.Parse(dateLayout, startStr); err != nil {
			return start, end, err
		}
	}
	if endStr != "" {
		if end, err = time.Parse(dateLayout, endStr); err != nil {
			return start, end, err
		}
	}
	if !start.Before(end) {
		return start, end, errors.New("start must be before end")
	}
	return start, end, nil
}
