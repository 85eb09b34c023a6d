package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"nvt/internal/metrics"
	"nvt/internal/storage"
)

// ErrorKind classifies a StorageError.
type ErrorKind int

const (
	// Unavailable means the medium could not be reached at all.
	Unavailable ErrorKind = iota + 1
	// WriteFailed means one write was rejected (quota, I/O).
	WriteFailed
	// CorruptValue means stored bytes do not decode to the expected shape.
	CorruptValue
)

func (k ErrorKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case WriteFailed:
		return "write_failed"
	case CorruptValue:
		return "corrupt_value"
	default:
		return "unknown"
	}
}

// StorageError is returned by KV operations that did not take effect.
type StorageError struct {
	Kind ErrorKind
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsKind reports whether err is a StorageError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == k
}

// Outcome describes what a lookup found.
type Outcome int

const (
	Found Outcome = iota
	Absent
	Corrupt
	NoStorage
)

// Validator is implemented by persisted types that check their own shape
// after decoding. A failing Validate turns the read into CorruptValue.
type Validator interface {
	Validate() error
}

// KV is the JSON layer over a storage.Store. All persisted state of the site
// passes through it.
type KV struct {
	medium  storage.Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a KV.
type Option func(*KV)

// WithLogger sets the logger used for absorbed failures.
func WithLogger(l *slog.Logger) Option {
	return func(kv *KV) { kv.log = l }
}

// WithMetrics attaches counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(kv *KV) { kv.metrics = m }
}

// New wraps medium.
func New(medium storage.Store, opts ...Option) *KV {
	kv := &KV{
		medium:  medium,
		log:     slog.Default(),
		metrics: &metrics.Metrics{},
	}
	for _, opt := range opts {
		opt(kv)
	}
	return kv
}

// Logger returns the logger failures are reported to.
func (kv *KV) Logger() *slog.Logger { return kv.log }

// Metrics returns the attached counters.
func (kv *KV) Metrics() *metrics.Metrics { return kv.metrics }

// Write serializes value and persists it under key.
func (kv *KV) Write(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return kv.fail(&StorageError{Kind: WriteFailed, Key: key, Err: err})
	}
	if err := kv.medium.Put(key, data); err != nil {
		return kv.fail(kv.classify(key, err, WriteFailed))
	}
	kv.metrics.WritesTotal.Add(1)
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (kv *KV) Remove(key string) error {
	if err := kv.medium.Delete(key); err != nil {
		return kv.fail(kv.classify(key, err, WriteFailed))
	}
	return nil
}

// ClearAll wipes the whole namespace. Only administrative paths call this.
func (kv *KV) ClearAll() error {
	if err := kv.medium.Clear(); err != nil {
		return kv.fail(kv.classify("", err, WriteFailed))
	}
	kv.log.Info("storage namespace cleared")
	return nil
}

// Keys lists the stored keys.
func (kv *KV) Keys() ([]string, error) {
	keys, err := kv.medium.Keys()
	if err != nil {
		return nil, kv.fail(kv.classify("", err, Unavailable))
	}
	return keys, nil
}

// Lookup decodes the value at key into T and reports the outcome. The error
// is a *StorageError for Corrupt and NoStorage outcomes and nil otherwise.
func Lookup[T any](kv *KV, key string) (T, Outcome, error) {
	var zero T
	kv.metrics.ReadsTotal.Add(1)

	raw, found, err := kv.medium.Get(key)
	if err != nil {
		return zero, NoStorage, kv.fail(kv.classify(key, err, Unavailable))
	}
	if !found {
		return zero, Absent, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, Absent, nil
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return zero, Corrupt, kv.fail(&StorageError{Kind: CorruptValue, Key: key, Err: err})
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return zero, Corrupt, kv.fail(&StorageError{Kind: CorruptValue, Key: key, Err: err})
		}
	}
	return v, Found, nil
}

// Read returns the value at key, or def when it is absent, corrupt or the
// medium is unreachable. It never fails.
func Read[T any](kv *KV, key string, def T) T {
	v, outcome, _ := Lookup[T](kv, key)
	if outcome != Found {
		return def
	}
	return v
}

func (kv *KV) classify(key string, err error, fallback ErrorKind) *StorageError {
	if errors.Is(err, storage.ErrUnavailable) {
		return &StorageError{Kind: Unavailable, Key: key, Err: err}
	}
	return &StorageError{Kind: fallback, Key: key, Err: err}
}

// fail records and logs a StorageError and hands it back to the caller.
func (kv *KV) fail(se *StorageError) error {
	switch se.Kind {
	case Unavailable:
		kv.metrics.UnavailableTotal.Add(1)
	case WriteFailed:
		kv.metrics.WriteFailuresTotal.Add(1)
	case CorruptValue:
		kv.metrics.CorruptReadsTotal.Add(1)
	}
	kv.log.Warn("storage operation failed",
		slog.String("kind", se.Kind.String()),
		slog.String("key", se.Key),
		slog.Any("error", se.Err),
	)
	return se
}
