package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SignalDash/internal/domain/models"
	xlogger "SignalDash/pkg/logger"
)

// fakeStore serves objects from a map; List returns keys sharing the prefix.
type fakeStore struct {
	objects map[string][]byte
	getErr  error
	listErr error
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	b, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key: " + key)
	}
	return b, nil
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// nopMetrics satisfies the Metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, time.Duration)         {}
func (nopMetrics) RecordFetchError(string, string)           {}
func (nopMetrics) RecordRowsDropped(string, string, int)     {}
func (nopMetrics) RecordSnapshot(string, int, time.Duration) {}
func (nopMetrics) RecordCacheHit(string)                     {}
func (nopMetrics) RecordCacheMiss(string)                    {}

func newTestLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

var priceColumns = []string{"timestamp", "coin", "price_usd", "market_cap_usd", "volume_24h_usd"}

func newTestPriceFeed(t *testing.T, store *fakeStore) *PriceFeed {
	t.Helper()
	return NewPriceFeed(store, "prices/latest.csv", priceColumns, nopMetrics{}, newTestLogger(t))
}

func TestPriceFeedLatestPerCoin(t *testing.T) {
	csv := strings.Join([]string{
		"2024-10-10T10:00:00Z,BTC,60000,1.2e12,3.4e10",
		"2024-10-10T10:03:00Z,ETH,2400,2.9e11,1.1e10",
		"2024-10-10T10:05:00Z,BTC,60100,1.21e12,3.5e10",
	}, "\n")
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(snap.Records))
	}
	btc := snap.Records["BTC"]
	if btc.PriceUSD != 60100 {
		t.Fatalf("expected latest BTC row to win, got price %v", btc.PriceUSD)
	}
	want := time.Date(2024, 10, 10, 10, 5, 0, 0, time.UTC)
	if !snap.ObservedAt.Equal(want) {
		t.Fatalf("expected snapshot time %v, got %v", want, snap.ObservedAt)
	}
	if len(snap.Notices) != 0 {
		t.Fatalf("expected no notices, got %v", snap.Notices)
	}
}

func TestPriceFeedMergesSymbolCase(t *testing.T) {
	csv := strings.Join([]string{
		"2024-10-10T10:00:00Z,btc,60000,0,0",
		"2024-10-10T10:05:00Z,BTC,60100,0,0",
	}, "\n")
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected case-insensitive merge into one coin, got %d", len(snap.Records))
	}
	if snap.Records["BTC"].PriceUSD != 60100 {
		t.Fatalf("expected latest row, got %v", snap.Records["BTC"].PriceUSD)
	}
}

func TestPriceFeedEqualTimestampsLaterRowWins(t *testing.T) {
	csv := strings.Join([]string{
		"2024-10-10T10:00:00Z,BTC,60000,0,0",
		"2024-10-10T10:00:00Z,BTC,60050,0,0",
	}, "\n")
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, _ := feed.Load(context.Background())
	if snap.Records["BTC"].PriceUSD != 60050 {
		t.Fatalf("expected later source row on tie, got %v", snap.Records["BTC"].PriceUSD)
	}
}

func TestPriceFeedDropsMalformedRows(t *testing.T) {
	csv := strings.Join([]string{
		"not-a-time,BTC,60000,0,0",
		"2024-10-10T10:00:00Z,,2400,0,0",
		"2024-10-10T10:00:00Z,SOL,abc,0,0",
		"2024-10-10T10:01:00Z,SOL,145.5,6.8e10,2.1e9",
	}, "\n")
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 1 {
		t.Fatalf("expected only the valid row, got %d records", len(snap.Records))
	}
	if snap.Records["SOL"].PriceUSD != 145.5 {
		t.Fatalf("unexpected SOL price %v", snap.Records["SOL"].PriceUSD)
	}
}

func TestPriceFeedAllRowsInvalidDegrades(t *testing.T) {
	csv := strings.Join([]string{
		"not-a-time,BTC,60000,0,0",
		"also-bad,ETH,2400,0,0",
	}, "\n")
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("degraded load must not error: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %d records", len(snap.Records))
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Level != models.NoticeError {
		t.Fatalf("expected one error notice, got %v", snap.Notices)
	}
	if snap.ObservedAt.IsZero() {
		t.Fatal("degraded snapshot must still carry a timestamp")
	}
}

func TestPriceFeedSchemaMismatchWhenAllRowsShort(t *testing.T) {
	csv := "2024-10-10T10:00:00Z,BTC\n2024-10-10T10:01:00Z,ETH\n"
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("degraded load must not error: %v", err)
	}
	if len(snap.Notices) != 1 {
		t.Fatalf("expected a notice, got %v", snap.Notices)
	}
	if !strings.Contains(snap.Notices[0].Message, "fewer than") {
		t.Fatalf("expected schema mismatch notice, got %q", snap.Notices[0].Message)
	}
}

func TestPriceFeedIgnoresExtraColumns(t *testing.T) {
	csv := "2024-10-10T10:00:00Z,BTC,60000,1.2e12,3.4e10,extra,columns\n"
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil || len(snap.Records) != 1 {
		t.Fatalf("expected row with trailing columns to parse, got %d records err=%v", len(snap.Records), err)
	}
}

func TestPriceFeedStoreFailureDegrades(t *testing.T) {
	feed := newTestPriceFeed(t, &fakeStore{getErr: errors.New("connection refused")})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("degraded load must not error: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %d records", len(snap.Records))
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Source != "price" {
		t.Fatalf("expected a price notice, got %v", snap.Notices)
	}
}

func TestPriceFeedUnixTimestamps(t *testing.T) {
	// 1728554400 = 2024-10-10T10:00:00Z
	csv := "1728554400,BTC,60000,0,0\n"
	feed := newTestPriceFeed(t, &fakeStore{objects: map[string][]byte{"prices/latest.csv": []byte(csv)}})

	snap, err := feed.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	if !snap.Records["BTC"].ObservedAt.Equal(want) {
		t.Fatalf("expected unix seconds to parse, got %v", snap.Records["BTC"].ObservedAt)
	}
}
