package api

import (
	"time"

	"SignalDash/internal/domain/models"
)

// Wire shapes for the dashboard endpoints. Domain models stay transport-free;
// the mapping happens here.

type coinRowView struct {
	Symbol        string     `json:"symbol"`
	PriceUSD      float64    `json:"price_usd"`
	MarketCapUSD  float64    `json:"market_cap_usd"`
	Volume24hUSD  float64    `json:"volume_24h_usd"`
	Change24hPct  float64    `json:"change_24h_pct"`
	Signal        string     `json:"signal"`
	Score         float64    `json:"score"`
	SignalData    *time.Time `json:"signal_data,omitempty"`
	SignalPublish *time.Time `json:"signal_publish,omitempty"`
	HasPrice      bool       `json:"has_price"`
	HasSignal     bool       `json:"has_signal"`
}

type noticeView struct {
	Level   string    `json:"level"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type overviewResponse struct {
	Model           string        `json:"model"`
	Models          []string      `json:"models"`
	RealtimeTime    time.Time     `json:"realtime_time"`
	LastModelUpdate *time.Time    `json:"last_model_update"`
	Coins           []coinRowView `json:"coins"`
	Notices         []noticeView  `json:"notices,omitempty"`
}

type priceRecordView struct {
	Symbol       string    `json:"symbol"`
	PriceUSD     float64   `json:"price_usd"`
	MarketCapUSD float64   `json:"market_cap_usd"`
	Volume24hUSD float64   `json:"volume_24h_usd"`
	Change24hPct float64   `json:"change_24h_pct"`
	ObservedAt   time.Time `json:"observed_at"`
}

type pricesResponse struct {
	Records    map[string]priceRecordView `json:"records"`
	ObservedAt time.Time                  `json:"observed_at"`
	Notices    []noticeView               `json:"notices,omitempty"`
}

type modelOutputView struct {
	Signal string  `json:"signal"`
	Score  float64 `json:"score"`
}

type signalRecordView struct {
	Symbol           string                     `json:"symbol"`
	Outputs          map[string]modelOutputView `json:"outputs"`
	DataTimestamp    time.Time                  `json:"timestamp_data"`
	PublishTimestamp time.Time                  `json:"timestamp_publish"`
}

type signalsResponse struct {
	Records     map[string]signalRecordView `json:"records"`
	PublishedAt *time.Time                  `json:"published_at"`
	Notices     []noticeView                `json:"notices,omitempty"`
}

func toNoticeViews(in []models.Notice) []noticeView {
	if len(in) == 0 {
		return nil
	}
	out := make([]noticeView, 0, len(in))
	for _, n := range in {
		out = append(out, noticeView{
			Level:   string(n.Level),
			Source:  n.Source,
			Message: n.Message,
			At:      n.At,
		})
	}
	return out
}

func toOverviewResponse(v models.MarketOverview) overviewResponse {
	coins := make([]coinRowView, 0, len(v.Coins))
	for _, c := range v.Coins {
		coins = append(coins, coinRowView{
			Symbol:        c.Symbol,
			PriceUSD:      c.PriceUSD,
			MarketCapUSD:  c.MarketCapUSD,
			Volume24hUSD:  c.Volume24hUSD,
			Change24hPct:  c.Change24hPct,
			Signal:        c.Signal.Label,
			Score:         c.Signal.Score,
			SignalData:    c.SignalData,
			SignalPublish: c.SignalPublish,
			HasPrice:      c.HasPrice,
			HasSignal:     c.HasSignal,
		})
	}
	return overviewResponse{
		Model:           v.Model,
		Models:          v.Models,
		RealtimeTime:    v.RealtimeTime,
		LastModelUpdate: v.LastModelUpdate,
		Coins:           coins,
		Notices:         toNoticeViews(v.Notices),
	}
}

func toPricesResponse(s models.PriceSnapshot) pricesResponse {
	records := make(map[string]priceRecordView, len(s.Records))
	for sym, rec := range s.Records {
		records[sym] = priceRecordView{
			Symbol:       rec.Symbol,
			PriceUSD:     rec.PriceUSD,
			MarketCapUSD: rec.MarketCapUSD,
			Volume24hUSD: rec.Volume24hUSD,
			Change24hPct: rec.Change24hPct,
			ObservedAt:   rec.ObservedAt,
		}
	}
	return pricesResponse{
		Records:    records,
		ObservedAt: s.ObservedAt,
		Notices:    toNoticeViews(s.Notices),
	}
}

func toSignalsResponse(s models.SignalSnapshot) signalsResponse {
	records := make(map[string]signalRecordView, len(s.Records))
	for sym, rec := range s.Records {
		outputs := make(map[string]modelOutputView, len(rec.Outputs))
		for key, out := range rec.Outputs {
			outputs[key] = modelOutputView{Signal: out.Label, Score: out.Score}
		}
		records[sym] = signalRecordView{
			Symbol:           rec.Symbol,
			Outputs:          outputs,
			DataTimestamp:    rec.DataTimestamp,
			PublishTimestamp: rec.PublishTimestamp,
		}
	}
	return signalsResponse{
		Records:     records,
		PublishedAt: s.PublishedAt,
		Notices:     toNoticeViews(s.Notices),
	}
}
