// Package site wires one instance of the site's state layer: the storage
// medium, the stores built on it, and the content catalog.
package site

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"nvt/content"
	"nvt/internal/booking"
	"nvt/internal/catalog"
	"nvt/internal/config"
	"nvt/internal/drafts"
	"nvt/internal/metrics"
	"nvt/internal/recent"
	"nvt/internal/storage"
	"nvt/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Site is constructed once per process and handed to whatever needs state.
type Site struct {
	persist storage.Store
	kv      *store.KV
	tracker *recent.Tracker
	drafts  *drafts.Store[booking.Form]
	catalog *catalog.Catalog
	browser *catalog.Browser
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Open creates and initializes a site instance.
func Open(cfg config.Config, log *slog.Logger) (*Site, error) {
	if log == nil {
		log = slog.Default()
	}

	persist, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var contentFS fs.FS = content.FS
	if cfg.ContentDir != "" {
		contentFS = os.DirFS(cfg.ContentDir)
	}
	cat, err := catalog.Load(contentFS)
	if err != nil {
		persist.Close()
		return nil, fmt.Errorf("load content: %w", err)
	}

	m := &metrics.Metrics{}
	kv := store.New(persist, store.WithLogger(log), store.WithMetrics(m))
	tracker := recent.NewTracker(kv, recent.WithMax(cfg.RecentMax))

	s := &Site{
		persist: persist,
		kv:      kv,
		tracker: tracker,
		drafts:  drafts.New[booking.Form](kv),
		catalog: cat,
		browser: catalog.NewBrowser(cat, tracker, log),
		metrics: m,
		log:     log,
	}
	log.Debug("site opened", slog.String("backend", cfg.Backend), slog.Int("recent_max", tracker.Max()))
	return s, nil
}

func openStorage(cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		return storage.NewBoltStore(cfg.DataDir)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(cfg.DataDir)
	case config.BackendMemory:
		return storage.NewMemoryStore(cfg.MemoryQuota), nil
	case config.BackendDisabled:
		return storage.Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (s *Site) KV() *store.KV                       { return s.kv }
func (s *Site) Tracker() *recent.Tracker            { return s.tracker }
func (s *Site) Drafts() *drafts.Store[booking.Form] { return s.drafts }
func (s *Site) Catalog() *catalog.Catalog           { return s.catalog }
func (s *Site) Browser() *catalog.Browser           { return s.browser }
func (s *Site) Metrics() *metrics.Metrics           { return s.metrics }

// NewBookingSession mounts a fresh appointment form, restoring any draft.
func (s *Site) NewBookingSession() *booking.Session {
	sess := booking.NewSession(s.drafts, booking.WithLogger(s.log), booking.WithMetrics(s.metrics))
	sess.Mount()
	return sess
}

// Registry returns a Prometheus registry exposing the site counters.
func (s *Site) Registry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(s.metrics)); err != nil {
		return nil, err
	}
	return reg, nil
}

// Close releases the storage medium.
func (s *Site) Close() error {
	return s.persist.Close()
}
