// Package recent keeps the "recently viewed" history of catalog entities.
package recent

import (
	"fmt"
	"log/slog"
	"time"

	"nvt/internal/store"
)

// Key is the storage key holding the list.
const Key = "recentlyViewed"

// DefaultMax is the list cap used when none is configured.
const DefaultMax = 10

// EntityType tags what kind of catalog entity was viewed.
type EntityType string

const (
	Service   EntityType = "service"
	Specialty EntityType = "specialty"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	return t == Service || t == Specialty
}

// ParseEntityType converts a wire string to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// ViewedEntry is one element of the history. (Type, ID) is its identity.
type ViewedEntry struct {
	Type     EntityType
	ID       int
	ViewedAt time.Time
}

type entryRecord struct {
	Type      EntityType `json:"type"`
	ID        int        `json:"id"`
	Timestamp int64      `json:"timestamp"`
}

type entryList []entryRecord

// Validate enforces the list invariants on data read back from storage.
func (l entryList) Validate() error {
	type pair struct {
		t  EntityType
		id int
	}
	seen := make(map[pair]struct{}, len(l))
	for i, e := range l {
		if !e.Type.Valid() {
			return fmt.Errorf("entry %d: unknown type %q", i, e.Type)
		}
		p := pair{e.Type, e.ID}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("entry %d: duplicate %s/%d", i, e.Type, e.ID)
		}
		seen[p] = struct{}{}
		if i > 0 && e.Timestamp > l[i-1].Timestamp {
			return fmt.Errorf("entry %d: out of order", i)
		}
	}
	return nil
}

// Tracker maintains a bounded, deduplicated, most-recent-first list of
// viewed entities. It reads through to storage on every call.
type Tracker struct {
	kv  *store.KV
	max int
	now func() time.Time
	log *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMax sets the list cap. Values <= 0 are ignored.
func WithMax(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.max = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker persisting through kv.
func NewTracker(kv *store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		kv:  kv,
		max: DefaultMax,
		now: time.Now,
		log: kv.Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Max returns the configured cap.
func (t *Tracker) Max() int { return t.max }

// RecordView moves (typ, id) to the front of the list with a fresh
// timestamp, evicting the oldest entries past the cap. Persistence is best
// effort: a returned *store.StorageError has already been logged and callers
// are expected to drop it.
func (t *Tracker) RecordView(typ EntityType, id int) error {
	if !typ.Valid() {
		t.log.Warn("ignoring view of unknown entity type", slog.String("type", string(typ)), slog.Int("id", id))
		return fmt.Errorf("unknown entity type %q", typ)
	}
	list := store.Read(t.kv, Key, entryList{})

	ts := t.now().UnixMilli()
	// Keep the list ordered even if the wall clock steps backwards.
	if len(list) > 0 && list[0].Timestamp > ts {
		ts = list[0].Timestamp
	}

	next := make(entryList, 0, len(list)+1)
	next = append(next, entryRecord{Type: typ, ID: id, Timestamp: ts})
	for _, e := range list {
		if e.Type == typ && e.ID == id {
			continue
		}
		next = append(next, e)
	}
	if len(next) > t.max {
		next = next[:t.max]
	}

	if err := t.kv.Write(Key, next); err != nil {
		return err
	}
	t.kv.Metrics().ViewsRecordedTotal.Add(1)
	return nil
}

// RecentlyViewed returns at most limit entries, most recent first. A nil
// filter returns every type. The cap is applied before filtering, so fewer
// than limit entries of one type may come back even if more were viewed.
func (t *Tracker) RecentlyViewed(filter *EntityType, limit int) []ViewedEntry {
	if limit <= 0 {
		return []ViewedEntry{}
	}
	list := store.Read(t.kv, Key, entryList{})
	if len(list) > t.max {
		list = list[:t.max]
	}

	out := make([]ViewedEntry, 0, min(limit, len(list)))
	for _, e := range list {
		if filter != nil && e.Type != *filter {
			continue
		}
		out = append(out, ViewedEntry{
			Type:     e.Type,
			ID:       e.ID,
			ViewedAt: time.UnixMilli(e.Timestamp),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}
