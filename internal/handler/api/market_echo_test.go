package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"SignalDash/internal/domain/models"
	"SignalDash/internal/usecase"
	xlogger "SignalDash/pkg/logger"
)

type stubPrices struct{ snap models.PriceSnapshot }

func (s stubPrices) Get(ctx context.Context) (models.PriceSnapshot, error) { return s.snap, nil }

type stubSignals struct{ snap models.SignalSnapshot }

func (s stubSignals) Get(ctx context.Context) (models.SignalSnapshot, error) { return s.snap, nil }

func newTestHandler(t *testing.T) *MarketEchoHandler {
	t.Helper()
	observed := time.Date(2024, 10, 10, 10, 5, 0, 0, time.UTC)
	published := observed.Add(-35 * time.Minute)

	prices := stubPrices{snap: models.PriceSnapshot{
		Records: map[string]models.PriceRecord{
			"BTC": {Symbol: "BTC", PriceUSD: 60100, ObservedAt: observed},
		},
		ObservedAt: observed,
	}}
	signals := stubSignals{snap: models.SignalSnapshot{
		Records: map[string]models.SignalRecord{
			"BTC": {
				Symbol:           "BTC",
				Outputs:          map[string]models.ModelOutput{"lr": {Label: "BUY", Score: 0.8}},
				PublishTimestamp: published,
			},
		},
		PublishedAt: &published,
	}}

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	u := usecase.NewMarketOverview(prices, signals, []string{"BTC", "ETH"}, []string{"lr"})
	return NewMarketEchoHandler(l, u, xlogger.NewIncidentLog(8))
}

func doRequest(t *testing.T, h *MarketEchoHandler, target string) map[string]any {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestOverviewEndpoint(t *testing.T) {
	body := doRequest(t, newTestHandler(t), "/api/overview")
	if body["status"].(float64) != 200 {
		t.Fatalf("unexpected envelope status %v", body["status"])
	}
	data := body["data"].(map[string]any)
	if data["model"] != "lr" {
		t.Fatalf("expected default model, got %v", data["model"])
	}
	coins := data["coins"].([]any)
	if len(coins) != 2 {
		t.Fatalf("expected both watch-list coins, got %d", len(coins))
	}
}

func TestOverviewEndpointRejectsUnknownModel(t *testing.T) {
	body := doRequest(t, newTestHandler(t), "/api/overview?model=xgb")
	if body["status"].(float64) != 400 {
		t.Fatalf("expected envelope status 400, got %v", body["status"])
	}
}

func TestModelsEndpoint(t *testing.T) {
	body := doRequest(t, newTestHandler(t), "/api/models")
	data := body["data"].(map[string]any)
	if ms := data["models"].([]any); len(ms) != 1 || ms[0] != "lr" {
		t.Fatalf("unexpected models %v", data["models"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	body := doRequest(t, newTestHandler(t), "/healthz")
	data := body["data"].(map[string]any)
	if data["status"] != "ok" {
		t.Fatalf("unexpected health %v", data)
	}
	if data["price_rows"].(float64) != 1 || data["signal_rows"].(float64) != 1 {
		t.Fatalf("unexpected row counts %v", data)
	}
}
