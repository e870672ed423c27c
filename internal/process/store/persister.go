// Package store persists the whole process collection as a single blob in a
// kv.Store. Writes are best-effort: failures are logged and counted, never
// returned to the mutation that triggered them.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clarity/internal/kv"
	"clarity/internal/process/metrics"
	"clarity/internal/process/models"
)

// DefaultKey is the storage key of the process collection.
const DefaultKey = "processes_data"

// Persister writes snapshots of the process collection. In asynchronous mode
// (the default) Save hands the encoded snapshot to the worker started by Run
// and returns immediately. Only the newest pending snapshot is kept; an older
// one still waiting is replaced.
type Persister struct {
	store   kv.Store
	key     string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	schema  *jsonschema.Schema
	sync    bool

	mu      sync.Mutex
	closed  bool
	pending chan []byte
}

type Option func(*Persister)

func WithKey(key string) Option {
	return func(p *Persister) {
		if key != "" {
			p.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Persister) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Persister) {
		p.metrics = m
	}
}

// WithSynchronousWrites makes Save write before returning. Used by tests and
// tools that exit right after a mutation.
func WithSynchronousWrites() Option {
	return func(p *Persister) {
		p.sync = true
	}
}

// New constructs a Persister over store.
func New(store kv.Store, opts ...Option) (*Persister, error) {
	if store == nil {
		return nil, errors.New("kv store is required")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	p := &Persister{
		store:   store,
		key:     DefaultKey,
		tracer:  otel.Tracer("clarity/process/store"),
		schema:  schema,
		pending: make(chan []byte, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p, nil
}

// Load reads the stored collection once. A missing key, an unreadable
// backend or malformed data all yield an empty collection.
func (p *Persister) Load(ctx context.Context) []*models.Process {
	ctx, span := p.tracer.Start(ctx, "processes.load", trace.WithAttributes(attribute.String("key", p.key)))
	defer span.End()

	data, err := p.store.Get(ctx, p.key)
	if errors.Is(err, kv.ErrNotFound) {
		p.logger.InfoContext(ctx, "no stored processes", "key", p.key)
		return []*models.Process{}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		p.logger.WarnContext(ctx, "failed to read stored processes, starting empty", "key", p.key, "error", err)
		return []*models.Process{}
	}

	processes, err := Decode(data, p.schema)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed data")
		p.logger.WarnContext(ctx, "stored processes are malformed, starting empty", "key", p.key, "error", err)
		return []*models.Process{}
	}
	span.SetAttributes(attribute.Int("processes", len(processes)))
	p.logger.InfoContext(ctx, "loaded stored processes", "key", p.key, "count", len(processes))
	return processes
}

// Save persists a snapshot of processes. The caller must pass records it
// will not mutate afterwards.
func (p *Persister) Save(ctx context.Context, processes []*models.Process) {
	data, err := Encode(processes)
	if err != nil {
		p.metrics.ObservePersistenceWrite(time.Now(), err)
		p.logger.ErrorContext(ctx, "failed to encode processes", "error", err)
		return
	}
	if p.sync {
		p.write(ctx, data)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.write(context.WithoutCancel(ctx), data)
		return
	}
	select {
	case p.pending <- data:
	default:
		select {
		case <-p.pending:
			p.metrics.IncrementSnapshotSuperseded()
		default:
		}
		p.pending <- data
	}
}

// Run writes pending snapshots until ctx is cancelled, then flushes the last
// pending snapshot and switches Save to synchronous writes.
func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.shutdown(context.WithoutCancel(ctx))
			return nil
		case data := <-p.pending:
			p.write(context.WithoutCancel(ctx), data)
		}
	}
}

func (p *Persister) shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	select {
	case data := <-p.pending:
		p.write(ctx, data)
	default:
	}
}

func (p *Persister) write(ctx context.Context, data []byte) {
	ctx, span := p.tracer.Start(ctx, "processes.persist", trace.WithAttributes(
		attribute.String("key", p.key),
		attribute.Int("bytes", len(data)),
	))
	defer span.End()

	start := time.Now()
	err := p.store.Set(ctx, p.key, data)
	p.metrics.ObservePersistenceWrite(start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		p.logger.ErrorContext(ctx, "failed to persist processes", "key", p.key, "error", fmt.Errorf("persist: %w", err))
	}
}
