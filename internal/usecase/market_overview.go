package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalDash/internal/domain/models"
	"SignalDash/pkg/cache"
)

// ErrUnknownModel reports a model selection outside the configured set.
var ErrUnknownModel = errors.New("unknown model key")

// PriceProvider and SignalProvider are satisfied by the TTL-memoized feeds.
type PriceProvider interface {
	Get(ctx context.Context) (models.PriceSnapshot, error)
}

type SignalProvider interface {
	Get(ctx context.Context) (models.SignalSnapshot, error)
}

// MarketOverview merges both feeds over the fixed watch-list into the payload
// the presentation layer renders.
type MarketOverview struct {
	prices    PriceProvider
	signals   SignalProvider
	watchlist []string
	models    []string
	shared    cache.Service
	sharedTTL time.Duration
	now       func() time.Time
}

func NewMarketOverview(prices PriceProvider, signals SignalProvider, watchlist, modelKeys []string) *MarketOverview {
	return &MarketOverview{
		prices:    prices,
		signals:   signals,
		watchlist: watchlist,
		models:    modelKeys,
		now:       time.Now,
	}
}

// SetSharedCache stores rendered overviews in a shared cache so replicas
// behind one load balancer serve the same snapshot. Kept well below the feed
// TTL; it smooths refresh bursts, it is not the staleness bound.
func (u *MarketOverview) SetSharedCache(c cache.Service, ttl time.Duration) {
	u.shared = c
	u.sharedTTL = ttl
}

// Models returns the configured model selection choices.
func (u *MarketOverview) Models() []string {
	out := make([]string, len(u.models))
	copy(out, u.models)
	return out
}

// Prices returns the cached price snapshot.
func (u *MarketOverview) Prices(ctx context.Context) (models.PriceSnapshot, error) {
	return u.prices.Get(ctx)
}

// Signals returns the cached signal snapshot.
func (u *MarketOverview) Signals(ctx context.Context) (models.SignalSnapshot, error) {
	return u.signals.Get(ctx)
}

// Overview builds the merged watch-list view for one model selection. Coins
// missing from either feed render with display defaults (price 0, signal
// "N/A"). Feed failures arrive as notices, never as errors here.
func (u *MarketOverview) Overview(ctx context.Context, modelKey string) (models.MarketOverview, error) {
	if modelKey == "" && len(u.models) > 0 {
		modelKey = u.models[0]
	}
	if !u.knownModel(modelKey) {
		return models.MarketOverview{}, fmt.Errorf("%w: %q", ErrUnknownModel, modelKey)
	}

	cacheKey := cache.GenerateKey("overview", modelKey)
	if u.shared != nil {
		var cached models.MarketOverview
		if err := u.shared.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	// The feeds are independent; fetch both at once. Each tolerates the
	// other being stale or absent.
	var (
		wg     sync.WaitGroup
		price  models.PriceSnapshot
		signal models.SignalSnapshot
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		price, _ = u.prices.Get(ctx)
	}()
	go func() {
		defer wg.Done()
		signal, _ = u.signals.Get(ctx)
	}()
	wg.Wait()

	view := models.MarketOverview{
		Model:           modelKey,
		Models:          u.Models(),
		RealtimeTime:    price.ObservedAt,
		LastModelUpdate: signal.PublishedAt,
		Coins:           make([]models.CoinRow, 0, len(u.watchlist)),
	}
	if view.RealtimeTime.IsZero() {
		view.RealtimeTime = u.now().UTC()
	}
	view.Notices = append(view.Notices, price.Notices...)
	view.Notices = append(view.Notices, signal.Notices...)

	for _, symbol := range u.watchlist {
		row := models.CoinRow{
			Symbol: symbol,
			Signal: models.ModelOutput{Label: "N/A"},
		}
		if rec, ok := price.Records[symbol]; ok {
			row.PriceUSD = rec.PriceUSD
			row.MarketCapUSD = rec.MarketCapUSD
			row.Volume24hUSD = rec.Volume24hUSD
			row.Change24hPct = rec.Change24hPct
			row.HasPrice = true
		}
		if rec, ok := signal.Records[symbol]; ok {
			if out, ok := rec.Outputs[modelKey]; ok {
				row.Signal = out
			}
			dataTs, pubTs := rec.DataTimestamp, rec.PublishTimestamp
			if !dataTs.IsZero() {
				row.SignalData = &dataTs
			}
			if !pubTs.IsZero() {
				row.SignalPublish = &pubTs
			}
			row.HasSignal = true
		}
		view.Coins = append(view.Coins, row)
	}

	if u.shared != nil {
		_ = u.shared.Set(ctx, cacheKey, view, u.sharedTTL)
	}
	return view, nil
}

func (u *MarketOverview) knownModel(key string) bool {
	for _, m := range u.models {
		if m == key {
			return true
		}
	}
	return false
}
