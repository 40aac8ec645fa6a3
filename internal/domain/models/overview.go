package models

import "time"

// CoinRow is one watch-list entry merged from both feeds, with display
// defaults applied for coins absent from either source.
type CoinRow struct {
	Symbol        string
	PriceUSD      float64
	MarketCapUSD  float64
	Volume24hUSD  float64
	Change24hPct  float64
	Signal        ModelOutput
	SignalData    *time.Time
	SignalPublish *time.Time
	HasPrice      bool
	HasSignal     bool
}

// MarketOverview is the full payload handed to the presentation layer.
type MarketOverview struct {
	Model           string
	Models          []string
	RealtimeTime    time.Time
	LastModelUpdate *time.Time
	Coins           []CoinRow
	Notices         []Notice
}
