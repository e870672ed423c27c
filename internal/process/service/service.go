package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clarity/internal/process/metrics"
	"clarity/internal/process/models"
	"clarity/internal/process/workflow"
	"clarity/pkg/requestcontext"
)

// DefaultDataExpiryDays is the retention window applied when data expiry is
// switched on without a configured value.
const DefaultDataExpiryDays = 30

// Store persists snapshots of the whole collection. Save must not report
// failures; the in-memory collection stays authoritative either way.
type Store interface {
	Load(ctx context.Context) []*models.Process
	Save(ctx context.Context, processes []*models.Process)
}

// Service owns the process collection. It keeps one ordered list (most
// recent first) plus the id of the current process. All read-modify-write
// sections run under one mutex, and every mutation hands a snapshot of the
// full collection to the Store.
//
// Unknown process, field, item or node ids are silent no-ops for mutations.
// Readers return copies; callers never alias stored state.
type Service struct {
	store      Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	templates  *workflow.Templates
	evaluator  *workflow.Evaluator
	clock      func(ctx context.Context) time.Time
	newID      func() string
	expiryDays int

	mu        sync.Mutex
	processes []*models.Process
	currentID string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTemplates appends per process type workflow nodes on creation.
func WithTemplates(t *workflow.Templates) Option {
	return func(s *Service) {
		s.templates = t
	}
}

// WithClock replaces the request-scoped clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = func(context.Context) time.Time { return now() }
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithDataExpiryDays sets the retention window used by SetDataExpiry.
func WithDataExpiryDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.expiryDays = days
		}
	}
}

// New constructs a Service with an empty collection. Call Load to restore
// persisted state.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("process store is required")
	}
	evaluator, err := workflow.NewEvaluator()
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:      store,
		evaluator:  evaluator,
		clock:      requestcontext.Now,
		newID:      uuid.NewString,
		expiryDays: DefaultDataExpiryDays,
		processes:  []*models.Process{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Load replaces the collection with the persisted one and clears the current
// process. Returns the number of processes restored.
func (s *Service) Load(ctx context.Context) int {
	loaded := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = make([]*models.Process, 0, len(loaded))
	for _, p := range loaded {
		if p != nil {
			s.processes = append(s.processes, p)
		}
	}
	s.currentID = ""
	return len(s.processes)
}

// errNoChange lets a mutation bail out without stamping or persisting.
var errNoChange = errors.New("no change")

// mutate runs fn on the stored process under the write lock. When fn
// succeeds the process is stamped with the current time and the collection
// is persisted. An unknown id reports found=false and runs nothing.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *models.Process, now time.Time) error) (updated *models.Process, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(id)
	if p == nil {
		return nil, false, nil
	}
	now := s.clock(ctx)
	if err := fn(p, now); err != nil {
		if errors.Is(err, errNoChange) {
			return p.Clone(), true, nil
		}
		return p.Clone(), true, err
	}
	p.UpdatedAt = now
	s.persistLocked(ctx)
	return p.Clone(), true, nil
}

func (s *Service) findLocked(id string) *models.Process {
	if id == "" {
		return nil
	}
	for _, p := range s.processes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Service) persistLocked(ctx context.Context) {
	snapshot := make([]*models.Process, len(s.processes))
	for i, p := range s.processes {
		snapshot[i] = p.Clone()
	}
	s.store.Save(ctx, snapshot)
}
