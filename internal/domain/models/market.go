package models

import "time"

// PriceRecord is the latest observed market state for one coin.
// Note: no transport (json/http) concerns here.
type PriceRecord struct {
	Symbol       string
	PriceUSD     float64
	MarketCapUSD float64
	Volume24hUSD float64
	Change24hPct float64
	ObservedAt   time.Time
}

// ModelOutput is one prediction model's verdict for a coin.
type ModelOutput struct {
	Label string  // label text as published; "N/A" when the model column is absent
	Score float64
}

// SignalRecord is the most recently published batch prediction for one coin.
type SignalRecord struct {
	Symbol           string
	Outputs          map[string]ModelOutput // keyed by model key ("lr", "dt", ...)
	DataTimestamp    time.Time
	PublishTimestamp time.Time
}

// PriceSnapshot is the reduced price feed: one record per coin plus the
// maximum observed-at across the full filtered row set (computed before the
// per-coin reduction).
type PriceSnapshot struct {
	Records    map[string]PriceRecord
	ObservedAt time.Time
	Notices    []Notice
}

// SignalSnapshot is the reduced signal feed. PublishedAt is nil until the
// batch job has produced at least one row.
type SignalSnapshot struct {
	Records     map[string]SignalRecord
	PublishedAt *time.Time
	Notices     []Notice
}

// NoticeLevel distinguishes blocking-visible feed failures from soft warnings.
type NoticeLevel string

const (
	NoticeError NoticeLevel = "error"
	NoticeWarn  NoticeLevel = "warn"
)

// Notice is a feed-level condition surfaced to the presentation layer
// instead of failing the refresh.
type Notice struct {
	Level   NoticeLevel
	Source  string // "price" or "signal"
	Message string
	At      time.Time
}
