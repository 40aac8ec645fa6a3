package api

import (
	"errors"
	"time"

	"SignalDash/internal/domain/models"
	"SignalDash/internal/usecase"
	xhttp "SignalDash/pkg/http"
	xlogger "SignalDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler exposes the dashboard payloads over HTTP. The
// presentation layer polls these endpoints on each refresh.
type MarketEchoHandler struct {
	logger    *xlogger.Logger
	overview  *usecase.MarketOverview
	incidents *xlogger.IncidentLog
}

func NewMarketEchoHandler(logger *xlogger.Logger, overview *usecase.MarketOverview, incidents *xlogger.IncidentLog) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, overview: overview, incidents: incidents}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/overview", h.Overview)
	g.GET("/prices", h.Prices)
	g.GET("/signals", h.Signals)
	g.GET("/models", h.Models)
	e.GET("/healthz", h.Health)
}

func (h *MarketEchoHandler) Overview(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.overview.Overview(c.Request().Context(), req.Model)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownModel) {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_ONEOF",
				Field:   "model",
				Message: err.Error(),
			}})
		}
		h.logger.Error("overview usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, toOverviewResponse(view))
}

func (h *MarketEchoHandler) Prices(c echo.Context) error {
	snap, err := h.overview.Prices(c.Request().Context())
	if err != nil {
		h.logger.Error("price snapshot error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, toPricesResponse(snap))
}

func (h *MarketEchoHandler) Signals(c echo.Context) error {
	snap, err := h.overview.Signals(c.Request().Context())
	if err != nil {
		h.logger.Error("signal snapshot error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, toSignalsResponse(snap))
}

func (h *MarketEchoHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{"models": h.overview.Models()})
}

// Health reports liveness plus feed staleness and recent incidents. Both
// snapshot calls are served from the TTL cache, so this stays cheap.
func (h *MarketEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	resp := healthResponse{Status: "ok", Time: time.Now().UTC()}

	if prices, err := h.overview.Prices(ctx); err == nil {
		resp.PriceRows = len(prices.Records)
		if !prices.ObservedAt.IsZero() {
			age := time.Since(prices.ObservedAt).Seconds()
			resp.PriceAgeSeconds = &age
		}
	}
	if signals, err := h.overview.Signals(ctx); err == nil {
		resp.SignalRows = len(signals.Records)
		if signals.PublishedAt != nil {
			age := time.Since(*signals.PublishedAt).Seconds()
			resp.SignalAgeSeconds = &age
		}
	}
	if h.incidents != nil {
		resp.Incidents = h.incidents.Recent(30 * time.Minute)
	}
	return xhttp.SuccessResponse(c, resp)
}

type healthResponse struct {
	Status           string             `json:"status"`
	Time             time.Time          `json:"time"`
	PriceRows        int                `json:"price_rows"`
	SignalRows       int                `json:"signal_rows"`
	PriceAgeSeconds  *float64           `json:"price_age_seconds,omitempty"`
	SignalAgeSeconds *float64           `json:"signal_age_seconds,omitempty"`
	Incidents        []xlogger.Incident `json:"incidents,omitempty"`
}
