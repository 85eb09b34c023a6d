// Package drafts persists in-progress form input so it can be restored after
// a reload. Each form id holds at most one draft.
package drafts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nvt/internal/store"
)

// KeyPrefix is prepended to the form id to build the storage key.
const KeyPrefix = "formProgress_"

// ErrEmptyFormID is returned when a draft is saved without a form id.
var ErrEmptyFormID = errors.New("form id is required")

// Key returns the storage key for formID.
func Key(formID string) string {
	return KeyPrefix + formID
}

// FormDraft is a saved snapshot of form values.
type FormDraft[T any] struct {
	FormID  string
	Data    T
	SavedAt time.Time
}

type record[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// storedRecord decodes a record read back from storage. A data value of
// JSON null is a real draft; only a missing data key is malformed.
type storedRecord[T any] struct {
	data      T
	timestamp int64
	null      bool
}

func (r *storedRecord[T]) UnmarshalJSON(b []byte) error {
	var wire struct {
		Data      json.RawMessage `json:"data"`
		Timestamp int64           `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	if wire.Data == nil {
		return errors.New("draft has no data")
	}
	if err := json.Unmarshal(wire.Data, &r.data); err != nil {
		return fmt.Errorf("draft data: %w", err)
	}
	r.timestamp = wire.Timestamp
	r.null = bytes.Equal(bytes.TrimSpace(wire.Data), []byte("null"))
	return nil
}

func (r storedRecord[T]) Validate() error {
	if r.null {
		return nil
	}
	if v, ok := any(&r.data).(store.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Store keeps drafts of one data shape T.
type Store[T any] struct {
	kv  *store.KV
	now func() time.Time
	log *slog.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a draft store persisting through kv.
func New[T any](kv *store.KV, opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{kv: kv, now: o.now, log: kv.Logger()}
}

// Save replaces the draft for formID with data. It is meant to be called on
// every change, without debouncing.
func (s *Store[T]) Save(formID string, data T) error {
	if formID == "" {
		return ErrEmptyFormID
	}
	rec := record[T]{Data: data, Timestamp: s.now().UnixMilli()}
	if err := s.kv.Write(Key(formID), rec); err != nil {
		return err
	}
	s.kv.Metrics().DraftsSavedTotal.Add(1)
	return nil
}

// Get returns the draft for formID. ok is false when there is none or the
// stored value does not decode as T.
func (s *Store[T]) Get(formID string) (draft *FormDraft[T], ok bool) {
	if formID == "" {
		return nil, false
	}
	rec, outcome, _ := store.Lookup[storedRecord[T]](s.kv, Key(formID))
	if outcome != store.Found {
		return nil, false
	}
	return &FormDraft[T]{
		FormID:  formID,
		Data:    rec.data,
		SavedAt: time.UnixMilli(rec.timestamp),
	}, true
}

// Clear removes the draft for formID. Clearing a missing draft is a no-op.
// Call it only after the form was successfully submitted.
func (s *Store[T]) Clear(formID string) error {
	if formID == "" {
		return nil
	}
	if err := s.kv.Remove(Key(formID)); err != nil {
		return err
	}
	s.kv.Metrics().DraftsClearedTotal.Add(1)
	s.log.Debug("form draft cleared", slog.String("form_id", formID))
	return nil
}
