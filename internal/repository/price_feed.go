package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"SignalDash/internal/domain/models"
	domrepo "SignalDash/internal/domain/repository"
	"SignalDash/pkg/config"
	xlogger "SignalDash/pkg/logger"
	"SignalDash/pkg/util"
)

const sourcePrice = "price"

// PriceFeed loads the header-less price CSV from object storage and reduces
// it to the latest record per coin. Columns are positional; their meaning
// comes from the configured schema list.
type PriceFeed struct {
	store   domrepo.ObjectStore
	key     string
	columns []string
	metrics domrepo.Metrics
	logger  *xlogger.Logger
	now     func() time.Time
}

func NewPriceFeed(store domrepo.ObjectStore, key string, columns []string, metrics domrepo.Metrics, logger *xlogger.Logger) *PriceFeed {
	return &PriceFeed{
		store:   store,
		key:     key,
		columns: columns,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Load fetches and reduces the price feed. Failures never propagate: the
// result degrades to an empty snapshot stamped "now" with an error-level
// notice, so one broken feed cannot take down the refresh.
func (f *PriceFeed) Load(ctx context.Context) (models.PriceSnapshot, error) {
	start := f.now()
	snap, err := f.load(ctx)
	f.metrics.RecordFetch(sourcePrice, f.now().Sub(start))

	if err != nil {
		f.metrics.RecordFetchError(sourcePrice, errorKind(err))
		f.logger.Error("price feed load failed",
			xlogger.String("key", f.key),
			xlogger.Error(err),
		)
		return models.PriceSnapshot{
			Records:    map[string]models.PriceRecord{},
			ObservedAt: f.now().UTC(),
			Notices: []models.Notice{{
				Level:   models.NoticeError,
				Source:  sourcePrice,
				Message: fmt.Sprintf("price data unavailable: %v", err),
				At:      f.now().UTC(),
			}},
		}, nil
	}

	f.metrics.RecordSnapshot(sourcePrice, len(snap.Records), f.now().Sub(snap.ObservedAt))
	return snap, nil
}

func (f *PriceFeed) load(ctx context.Context) (models.PriceSnapshot, error) {
	raw, err := f.store.Get(ctx, f.key)
	if err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	col := make(map[string]int, len(f.columns))
	for i, name := range f.columns {
		col[name] = i
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		total    int
		short    int
		dropped  = map[string]int{}
		retained []models.PriceRecord
		maxTs    time.Time
	)

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			dropped["unreadable"]++
			continue
		}
		total++

		// Extra columns beyond the schema are ignored; fewer is malformed.
		if len(fields) < len(f.columns) {
			short++
			continue
		}

		ts, ok := util.ParseTime(strings.TrimSpace(fields[col[config.ColTimestamp]]))
		if !ok {
			dropped["bad_timestamp"]++
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(fields[col[config.ColCoin]]))
		if symbol == "" {
			dropped["missing_coin"]++
			continue
		}
		price, ok := util.ParseFloat(strings.TrimSpace(fields[col[config.ColPrice]]))
		if !ok {
			dropped["bad_price"]++
			continue
		}

		rec := models.PriceRecord{
			Symbol:     symbol,
			PriceUSD:   price,
			ObservedAt: ts,
		}
		// Optional numeric columns default to 0 when absent or unparseable.
		if i, ok := col[config.ColMarketCap]; ok {
			rec.MarketCapUSD, _ = util.ParseFloat(strings.TrimSpace(fields[i]))
		}
		if i, ok := col[config.ColVolume24h]; ok {
			rec.Volume24hUSD, _ = util.ParseFloat(strings.TrimSpace(fields[i]))
		}
		if i, ok := col[config.ColChange24h]; ok {
			rec.Change24hPct, _ = util.ParseFloat(strings.TrimSpace(fields[i]))
		}

		retained = append(retained, rec)
		if ts.After(maxTs) {
			maxTs = ts
		}
	}

	f.metrics.RecordRowsDropped(sourcePrice, "short_row", short)
	for reason, n := range dropped {
		f.metrics.RecordRowsDropped(sourcePrice, reason, n)
	}

	if total > 0 && short == total {
		return models.PriceSnapshot{}, fmt.Errorf("%w: every row has fewer than %d columns", models.ErrSchemaMismatch, len(f.columns))
	}
	if len(retained) == 0 {
		return models.PriceSnapshot{}, models.ErrEmptyAfterFilter
	}

	// Latest row per coin; on equal timestamps the later source row wins.
	records := make(map[string]models.PriceRecord, len(retained))
	for _, rec := range retained {
		cur, ok := records[rec.Symbol]
		if !ok || !rec.ObservedAt.Before(cur.ObservedAt) {
			records[rec.Symbol] = rec
		}
	}

	// ObservedAt is the max over the full filtered set, not the per-coin
	// maxima (they coincide, but the full set is what the display shows).
	return models.PriceSnapshot{
		Records:    records,
		ObservedAt: maxTs,
	}, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, models.ErrEmptyAfterFilter):
		return "empty_after_filter"
	case errors.Is(err, models.ErrSourceUnavailable):
		return "source_unavailable"
	default:
		return "unknown"
	}
}
