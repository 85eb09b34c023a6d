package booking

import (
	"log/slog"
	"strings"
	"time"

	"nvt/internal/drafts"
	"nvt/internal/metrics"

	"github.com/google/uuid"
)

// ValidationError lists why a submission was rejected.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "booking form invalid: " + strings.Join(e.Problems, " ")
}

// Confirmation is returned for an accepted submission.
type Confirmation struct {
	Reference   uuid.UUID
	Form        Form
	SubmittedAt time.Time
}

// Session is one mounted instance of the appointment form.
type Session struct {
	drafts  *drafts.Store[Form]
	form    Form
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session holding the initial form.
func NewSession(d *drafts.Store[Form], opts ...Option) *Session {
	s := &Session{
		drafts:  d,
		form:    Initial(),
		log:     slog.Default(),
		metrics: &metrics.Metrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount restores a saved draft, if any, and reports whether it did.
func (s *Session) Mount() bool {
	d, ok := s.drafts.Get(FormID)
	if !ok {
		return false
	}
	// A null draft decodes to a zero Form, which has no service type or mode.
	if err := d.Data.Validate(); err != nil {
		s.log.Debug("ignoring unusable booking draft", slog.Any("error", err))
		return false
	}
	s.form = d.Data
	s.metrics.DraftsRestoredTotal.Add(1)
	s.log.Info("restored booking draft", slog.Time("saved_at", d.SavedAt))
	return true
}

// Form returns the current field values.
func (s *Session) Form() Form { return s.form }

// Change sets one field and writes the whole form through to the draft.
func (s *Session) Change(field, value string) error {
	if err := s.form.Set(field, value); err != nil {
		return err
	}
	if err := s.drafts.Save(FormID, s.form); err != nil {
		// Typing continues; only reload recovery is lost.
		s.log.Warn("booking draft not saved", slog.Any("error", err))
	}
	return nil
}

// Submit validates the form. On failure the draft is kept so nothing typed
// is lost. On success the draft is cleared and a confirmation returned.
func (s *Session) Submit() (Confirmation, error) {
	if problems := s.form.Problems(); len(problems) > 0 {
		return Confirmation{}, &ValidationError{Problems: problems}
	}
	if err := s.drafts.Clear(FormID); err != nil {
		s.log.Warn("booking draft not cleared", slog.Any("error", err))
	}
	s.metrics.SubmissionsTotal.Add(1)
	c := Confirmation{
		Reference:   uuid.New(),
		Form:        s.form,
		SubmittedAt: s.now(),
	}
	s.log.Info("booking request submitted",
		slog.String("reference", c.Reference.String()),
		slog.String("service_type", string(c.Form.ServiceType)),
		slog.String("mode", string(c.Form.Mode)),
	)
	return c, nil
}
