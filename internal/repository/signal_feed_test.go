package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"SignalDash/internal/domain/models"
)

// predictionRow mirrors what the batch job writes for two models.
type predictionRow struct {
	Coin             string    `parquet:"coin"`
	TimestampData    time.Time `parquet:"timestamp_data,timestamp(millisecond)"`
	TimestampPublish time.Time `parquet:"timestamp_publish,timestamp(millisecond)"`
	SignalLR         string    `parquet:"signal_lr"`
	PredictionLR     float64   `parquet:"prediction_lr"`
	SignalDT         string    `parquet:"signal_dt"`
	PredictionDT     float64   `parquet:"prediction_dt"`
}

// legacyRow predates the dt model columns.
type legacyRow struct {
	Coin             string    `parquet:"coin"`
	TimestampData    time.Time `parquet:"timestamp_data,timestamp(millisecond)"`
	TimestampPublish time.Time `parquet:"timestamp_publish,timestamp(millisecond)"`
	SignalLR         string    `parquet:"signal_lr"`
	PredictionLR     float64   `parquet:"prediction_lr"`
}

func writeParquet[T any](t *testing.T, rows []T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close parquet: %v", err)
	}
	return buf.Bytes()
}

func newTestSignalFeed(t *testing.T, store *fakeStore) *SignalFeed {
	t.Helper()
	return NewSignalFeed(store, "current_predictions/", []string{"lr", "dt"}, nopMetrics{}, newTestLogger(t))
}

func TestSignalFeedLatestPublishPerCoin(t *testing.T) {
	t1 := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 10, 10, 9, 30, 0, 0, time.UTC)

	part1 := writeParquet(t, []predictionRow{
		{Coin: "SOL", TimestampData: t1.Add(-time.Hour), TimestampPublish: t1, SignalLR: "SELL", PredictionLR: 0.3, SignalDT: "HOLD", PredictionDT: 0.5},
		{Coin: "BTC", TimestampData: t1.Add(-time.Hour), TimestampPublish: t1, SignalLR: "BUY", PredictionLR: 0.8, SignalDT: "BUY", PredictionDT: 0.7},
	})
	part2 := writeParquet(t, []predictionRow{
		{Coin: "sol", TimestampData: t2.Add(-time.Hour), TimestampPublish: t2, SignalLR: "BUY", PredictionLR: 0.9, SignalDT: "BUY", PredictionDT: 0.6},
	})
	store := &fakeStore{objects: map[string][]byte{
		"current_predictions/part-0000.parquet": part1,
		"current_predictions/part-0001.parquet": part2,
		"current_predictions/_SUCCESS":          {},
	}}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(snap.Records))
	}

	sol, ok := snap.Records["SOL"]
	if !ok {
		t.Fatal("expected lowercase coin to be uppercased")
	}
	if got := sol.Outputs["lr"]; got.Label != "BUY" || got.Score != 0.9 {
		t.Fatalf("expected most recently published SOL row, got %+v", got)
	}
	if !sol.PublishTimestamp.Equal(t2) {
		t.Fatalf("expected publish %v, got %v", t2, sol.PublishTimestamp)
	}

	if snap.PublishedAt == nil || !snap.PublishedAt.Equal(t2) {
		t.Fatalf("expected global publish time %v, got %v", t2, snap.PublishedAt)
	}
	if len(snap.Notices) != 0 {
		t.Fatalf("expected no notices, got %v", snap.Notices)
	}
}

func TestSignalFeedNoPartsMeansNoSignalYet(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"current_predictions/_SUCCESS": {},
	}}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 0 || snap.PublishedAt != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if len(snap.Notices) != 0 {
		t.Fatalf("batch not run yet must not raise a notice, got %v", snap.Notices)
	}
}

func TestSignalFeedMissingModelColumnsFallBack(t *testing.T) {
	t1 := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	part := writeParquet(t, []legacyRow{
		{Coin: "ETH", TimestampData: t1.Add(-time.Hour), TimestampPublish: t1, SignalLR: "HOLD", PredictionLR: 0.55},
	})
	store := &fakeStore{objects: map[string][]byte{
		"current_predictions/part-0000.parquet": part,
	}}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eth := snap.Records["ETH"]
	if got := eth.Outputs["lr"]; got.Label != "HOLD" || got.Score != 0.55 {
		t.Fatalf("unexpected lr output %+v", got)
	}
	if got := eth.Outputs["dt"]; got.Label != "N/A" || got.Score != 0 {
		t.Fatalf("expected fallback for absent dt columns, got %+v", got)
	}
}

func TestSignalFeedListFailureDegradesWithWarning(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("degraded load must not error: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %d records", len(snap.Records))
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Level != models.NoticeWarn {
		t.Fatalf("expected one warn notice, got %v", snap.Notices)
	}
}

func TestSignalFeedRejectsPartWithoutCoinColumn(t *testing.T) {
	type rowWithoutCoin struct {
		Symbol           string    `parquet:"symbol"`
		TimestampPublish time.Time `parquet:"timestamp_publish,timestamp(millisecond)"`
	}
	part := writeParquet(t, []rowWithoutCoin{
		{Symbol: "BTC", TimestampPublish: time.Now()},
	})
	store := &fakeStore{objects: map[string][]byte{
		"current_predictions/part-0000.parquet": part,
	}}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("degraded load must not error: %v", err)
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Level != models.NoticeWarn {
		t.Fatalf("expected warn notice for schema mismatch, got %v", snap.Notices)
	}
}

func TestSignalFeedDropsRowsWithoutCoin(t *testing.T) {
	t1 := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	part := writeParquet(t, []predictionRow{
		{Coin: "", TimestampPublish: t1, SignalLR: "BUY", PredictionLR: 0.9},
		{Coin: "ADA", TimestampData: t1.Add(-time.Hour), TimestampPublish: t1, SignalLR: "SELL", PredictionLR: 0.2, SignalDT: "SELL", PredictionDT: 0.1},
	})
	store := &fakeStore{objects: map[string][]byte{
		"current_predictions/part-0000.parquet": part,
	}}

	snap, err := newTestSignalFeed(t, store).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected the blank-coin row dropped, got %d records", len(snap.Records))
	}
	if _, ok := snap.Records["ADA"]; !ok {
		t.Fatal("expected ADA record")
	}
}
