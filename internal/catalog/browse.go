package catalog

import (
	"errors"
	"log/slog"
	"time"

	"nvt/internal/recent"
)

// ErrNotFound is returned when a detail view is opened for an unknown id.
var ErrNotFound = errors.New("catalog entity not found")

// HomeRecentLimit is how many recently viewed cards the home page shows.
const HomeRecentLimit = 4

// Card is a recently viewed entity joined with its catalog content.
type Card struct {
	Type             recent.EntityType
	ID               int
	Name             string
	Image            string
	ShortDescription string
	ViewedAt         time.Time
}

// Hydrate joins history entries with catalog content. Entries whose entity
// no longer exists in the catalog are dropped.
func (c *Catalog) Hydrate(entries []recent.ViewedEntry) []Card {
	out := make([]Card, 0, len(entries))
	for _, e := range entries {
		switch e.Type {
		case recent.Service:
			if s, ok := c.Service(e.ID); ok {
				out = append(out, Card{
					Type: e.Type, ID: s.ID, Name: s.Name, Image: s.Image,
					ShortDescription: s.ShortDescription, ViewedAt: e.ViewedAt,
				})
			}
		case recent.Specialty:
			if s, ok := c.Specialty(e.ID); ok {
				out = append(out, Card{
					Type: e.Type, ID: s.ID, Name: s.Name, Image: s.Image,
					ShortDescription: s.ShortDescription, ViewedAt: e.ViewedAt,
				})
			}
		}
	}
	return out
}

// Browser opens detail views and keeps the viewing history current.
type Browser struct {
	catalog *Catalog
	tracker *recent.Tracker
	log     *slog.Logger
}

// NewBrowser ties a catalog to a history tracker.
func NewBrowser(c *Catalog, t *recent.Tracker, log *slog.Logger) *Browser {
	if log == nil {
		log = slog.Default()
	}
	return &Browser{catalog: c, tracker: t, log: log}
}

// OpenService returns the service detail and records the view.
func (b *Browser) OpenService(id int) (Service, error) {
	s, ok := b.catalog.Service(id)
	if !ok {
		return Service{}, ErrNotFound
	}
	b.record(recent.Service, id)
	return s, nil
}

// OpenSpecialty returns the specialty detail and records the view.
func (b *Browser) OpenSpecialty(id int) (Specialty, error) {
	s, ok := b.catalog.Specialty(id)
	if !ok {
		return Specialty{}, ErrNotFound
	}
	b.record(recent.Specialty, id)
	return s, nil
}

// RecentCards returns up to limit hydrated cards, most recent first.
func (b *Browser) RecentCards(limit int) []Card {
	return b.catalog.Hydrate(b.tracker.RecentlyViewed(nil, limit))
}

func (b *Browser) record(typ recent.EntityType, id int) {
	// History is a convenience; the detail view opens either way.
	if err := b.tracker.RecordView(typ, id); err != nil {
		b.log.Debug("view not persisted", slog.String("type", string(typ)), slog.Int("id", id), slog.Any("error", err))
	}
}
