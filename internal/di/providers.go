package di

import (
	"fmt"

	"SignalDash/internal/domain/models"
	domrepo "SignalDash/internal/domain/repository"
	"SignalDash/internal/handler/api"
	internalrepo "SignalDash/internal/repository"
	scache "SignalDash/internal/service/cache"
	"SignalDash/internal/usecase"
	pkgcache "SignalDash/pkg/cache"
	"SignalDash/pkg/config"
	xhttp "SignalDash/pkg/http"
	xlogger "SignalDash/pkg/logger"
	"SignalDash/pkg/metrics"
	"SignalDash/pkg/objstore"
	"SignalDash/pkg/server"
)

// ProvideIncidentLog creates the bounded incident record surfaced on /healthz.
func ProvideIncidentLog() *xlogger.IncidentLog {
	return xlogger.NewIncidentLog(64)
}

// ProvideLogger creates the application logger with incidents attached.
func ProvideLogger(cfg *config.Config, incidents *xlogger.IncidentLog) (*xlogger.Logger, error) {
	level, format, output := cfg.Log.Level, cfg.Log.Format, cfg.Log.Output
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "json"
	}
	if output == "" {
		output = "stdout"
	}
	l, err := xlogger.New(&xlogger.Config{Level: level, Format: format, Output: output})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AttachIncidents(incidents)
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideObjectStore creates the S3-compatible storage client.
func ProvideObjectStore(cfg *config.Config) (domrepo.ObjectStore, error) {
	client, err := objstore.NewClient(
		objstore.WithEndpoint(cfg.Storage.Endpoint),
		objstore.WithRegion(cfg.Storage.Region),
		objstore.WithBucket(cfg.Storage.Bucket),
		objstore.WithCredentials(cfg.Storage.AccessKey, cfg.Storage.SecretKey),
		objstore.WithPathStyle(cfg.Storage.PathStyle),
		objstore.WithRequestTimeout(cfg.Storage.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return client, nil
}

// ProvidePriceFeed creates the CSV price snapshot loader.
func ProvidePriceFeed(store domrepo.ObjectStore, m domrepo.Metrics, l *xlogger.Logger, cfg *config.Config) *internalrepo.PriceFeed {
	return internalrepo.NewPriceFeed(store, cfg.PriceFeed.Key, cfg.PriceFeed.Columns, m, l)
}

// ProvideSignalFeed creates the parquet signal snapshot loader.
func ProvideSignalFeed(store domrepo.ObjectStore, m domrepo.Metrics, l *xlogger.Logger, cfg *config.Config) *internalrepo.SignalFeed {
	return internalrepo.NewSignalFeed(store, cfg.SignalFeed.Prefix, cfg.SignalFeed.Models, m, l)
}

// ProvidePriceMemo wraps the price loader in the TTL cache.
func ProvidePriceMemo(feed *internalrepo.PriceFeed, m domrepo.Metrics, cfg *config.Config) *scache.Memo[models.PriceSnapshot] {
	return scache.NewMemo("price", cfg.Cache.TTL, feed.Load, m)
}

// ProvideSignalMemo wraps the signal loader in the TTL cache.
func ProvideSignalMemo(feed *internalrepo.SignalFeed, m domrepo.Metrics, cfg *config.Config) *scache.Memo[models.SignalSnapshot] {
	return scache.NewMemo("signal", cfg.Cache.TTL, feed.Load, m)
}

// ProvideSharedCache creates the optional cross-replica cache. Nil when
// redis is not configured; the overview is then memoized per process only.
func ProvideSharedCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideOverview creates the watch-list merge usecase.
func ProvideOverview(
	prices *scache.Memo[models.PriceSnapshot],
	signals *scache.Memo[models.SignalSnapshot],
	shared pkgcache.Service,
	cfg *config.Config,
) *usecase.MarketOverview {
	u := usecase.NewMarketOverview(prices, signals, cfg.Watchlist, cfg.SignalFeed.Models)
	if shared != nil {
		u.SetSharedCache(shared, cfg.Cache.OverviewTTL)
	}
	return u
}

// ProvideHandler creates the dashboard HTTP handler.
func ProvideHandler(l *xlogger.Logger, overview *usecase.MarketOverview, incidents *xlogger.IncidentLog) xhttp.Handler {
	return api.NewMarketEchoHandler(l, overview, incidents)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, handler xhttp.Handler, l *xlogger.Logger, shared pkgcache.Service) *server.App {
	return server.New(cfg, handler, l, shared)
}
