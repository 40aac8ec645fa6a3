package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"SignalDash/internal/domain/models"
	domrepo "SignalDash/internal/domain/repository"
	xlogger "SignalDash/pkg/logger"
	"SignalDash/pkg/util"
)

const sourceSignal = "signal"

// Parquet column names the batch job writes. Per-model columns are
// "signal_<key>" and "prediction_<key>".
const (
	signalColCoin    = "coin"
	signalColData    = "timestamp_data"
	signalColPublish = "timestamp_publish"
)

// SignalFeed loads the batch prediction snapshot: every parquet part under
// the configured prefix, reduced to the most recently published row per coin.
type SignalFeed struct {
	store   domrepo.ObjectStore
	prefix  string
	models  []string
	metrics domrepo.Metrics
	logger  *xlogger.Logger
	now     func() time.Time
}

func NewSignalFeed(store domrepo.ObjectStore, prefix string, modelKeys []string, metrics domrepo.Metrics, logger *xlogger.Logger) *SignalFeed {
	return &SignalFeed{
		store:   store,
		prefix:  prefix,
		models:  modelKeys,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Load fetches and reduces the signal feed. The signal feed is secondary:
// failures degrade to an empty snapshot with a warn-level notice. An empty
// snapshot (batch job not run yet) is not a failure and carries no notice.
func (f *SignalFeed) Load(ctx context.Context) (models.SignalSnapshot, error) {
	start := f.now()
	snap, err := f.load(ctx)
	f.metrics.RecordFetch(sourceSignal, f.now().Sub(start))

	if err != nil {
		f.metrics.RecordFetchError(sourceSignal, errorKind(err))
		f.logger.Warn("signal feed load failed",
			xlogger.String("prefix", f.prefix),
			xlogger.Error(err),
		)
		return models.SignalSnapshot{
			Records: map[string]models.SignalRecord{},
			Notices: []models.Notice{{
				Level:   models.NoticeWarn,
				Source:  sourceSignal,
				Message: fmt.Sprintf("prediction signals unavailable: %v", err),
				At:      f.now().UTC(),
			}},
		}, nil
	}

	if snap.PublishedAt != nil {
		f.metrics.RecordSnapshot(sourceSignal, len(snap.Records), f.now().Sub(*snap.PublishedAt))
	}
	return snap, nil
}

// signalRow is one decoded parquet row before reduction.
type signalRow struct {
	coin    string
	data    time.Time
	publish time.Time
	cols    map[string]any
}

func (f *SignalFeed) load(ctx context.Context) (models.SignalSnapshot, error) {
	keys, err := f.store.List(ctx, f.prefix)
	if err != nil {
		return models.SignalSnapshot{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	var rows []signalRow
	for _, key := range keys {
		// Spark output: part files plus markers like _SUCCESS.
		if !strings.HasSuffix(key, ".parquet") {
			continue
		}
		raw, err := f.store.Get(ctx, key)
		if err != nil {
			return models.SignalSnapshot{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
		}
		part, err := decodeParquet(raw)
		if err != nil {
			return models.SignalSnapshot{}, fmt.Errorf("decode %s: %w", key, err)
		}
		rows = append(rows, part...)
	}

	// No rows yet is "no signal yet", not an error.
	if len(rows) == 0 {
		return models.SignalSnapshot{Records: map[string]models.SignalRecord{}}, nil
	}

	missing := 0
	kept := rows[:0]
	for _, rw := range rows {
		if rw.coin == "" {
			missing++
			continue
		}
		kept = append(kept, rw)
	}
	f.metrics.RecordRowsDropped(sourceSignal, "missing_coin", missing)

	// Max publish time over the pre-deduplication row set.
	var maxPublish time.Time
	for _, rw := range kept {
		if rw.publish.After(maxPublish) {
			maxPublish = rw.publish
		}
	}

	// Most recently published row per coin wins; stable sort keeps source
	// order among equal timestamps.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].publish.After(kept[j].publish) })

	records := make(map[string]models.SignalRecord, len(kept))
	for _, rw := range kept {
		if _, ok := records[rw.coin]; ok {
			continue
		}
		rec := models.SignalRecord{
			Symbol:           rw.coin,
			Outputs:          make(map[string]models.ModelOutput, len(f.models)),
			DataTimestamp:    rw.data,
			PublishTimestamp: rw.publish,
		}
		for _, key := range f.models {
			rec.Outputs[key] = modelOutput(rw.cols, key)
		}
		records[rw.coin] = rec
	}

	snap := models.SignalSnapshot{Records: records}
	if !maxPublish.IsZero() {
		snap.PublishedAt = &maxPublish
	}
	return snap, nil
}

// modelOutput extracts one model's label and score, falling back to
// "N/A"/0 when the snapshot predates that model's columns.
func modelOutput(cols map[string]any, key string) models.ModelOutput {
	labelCol, scoreCol := "signal_"+key, "prediction_"+key
	if key == "" {
		// early batches wrote a single unsuffixed model
		labelCol, scoreCol = "signal", "prediction"
	}
	out := models.ModelOutput{Label: "N/A"}
	if v, ok := cols[labelCol]; ok {
		out.Label = asText(v)
	}
	if v, ok := cols[scoreCol]; ok {
		out.Score = asFloat(v)
	}
	return out
}

// decodeParquet reads every row of a parquet part into name-keyed maps. The
// schema is read from the file itself so older batches that lack newer model
// columns still decode.
func decodeParquet(raw []byte) ([]signalRow, error) {
	file, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := file.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	logical := make([]*format.LogicalType, len(paths))
	hasCoin := false
	for i, path := range paths {
		names[i] = path[len(path)-1]
		if names[i] == signalColCoin {
			hasCoin = true
		}
		if leaf, ok := schema.Lookup(path...); ok {
			logical[i] = leaf.Node.Type().LogicalType()
		}
	}
	if !hasCoin {
		return nil, fmt.Errorf("%w: no '%s' column", models.ErrSchemaMismatch, signalColCoin)
	}

	var out []signalRow
	for _, rg := range file.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 64)
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				out = append(out, toSignalRow(buf[i], names, logical))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("read rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close rows: %w", err)
		}
	}
	return out, nil
}

func toSignalRow(row parquet.Row, names []string, logical []*format.LogicalType) signalRow {
	cols := make(map[string]any, len(names))
	for _, v := range row {
		ci := v.Column()
		if ci < 0 || ci >= len(names) || v.IsNull() {
			continue
		}
		cols[names[ci]] = decodeValue(v, logical[ci])
	}

	rw := signalRow{cols: cols}
	// Coin may arrive as a non-string column; coerce to text first.
	if v, ok := cols[signalColCoin]; ok {
		rw.coin = strings.ToUpper(strings.TrimSpace(asText(v)))
	}
	rw.data = asTime(cols[signalColData])
	rw.publish = asTime(cols[signalColPublish])
	return rw
}

// decodeValue maps a parquet value to string, float64, bool, or time.Time,
// honoring the column's timestamp logical type unit.
func decodeValue(v parquet.Value, lt *format.LogicalType) any {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Double:
		return v.Double()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampFromUnit(v.Int64(), lt.Timestamp.Unit)
		}
		return float64(v.Int64())
	default:
		return v.String()
	}
}

func timestampFromUnit(ts int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(ts).UTC()
	case unit.Micros != nil:
		return time.UnixMicro(ts).UTC()
	case unit.Nanos != nil:
		return time.Unix(0, ts).UTC()
	default:
		return time.UnixMilli(ts).UTC()
	}
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f, _ := util.ParseFloat(t)
		return f
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return util.ParseTimeDefault(t, time.Time{})
	case float64:
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC()
		}
		if t > 0 {
			return time.Unix(int64(t), 0).UTC()
		}
	}
	return time.Time{}
}
