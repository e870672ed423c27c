package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clarity/internal/kv"
	"clarity/internal/kv/mocks"
	"clarity/internal/process/metrics"
	"clarity/internal/process/models"
)

// =============================================================================
// Persister Test Suite
// =============================================================================
// Justification: persistence is best-effort and must never surface failures
// to callers; the suite verifies load fallbacks, write-through in synchronous
// mode and newest-wins delivery in asynchronous mode.

type PersisterSuite struct {
	suite.Suite
	ctx     context.Context
	kv      *kv.InMemory
	metrics *metrics.Metrics
}

func TestPersisterSuite(t *testing.T) {
	suite.Run(t, new(PersisterSuite))
}

func (s *PersisterSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = kv.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *PersisterSuite) newProcess(id string) *models.Process {
	return models.NewProcess(id, "visa", "Visa "+id, "", time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
}

func (s *PersisterSuite) stored(key string) []*models.Process {
	data, err := s.kv.Get(s.ctx, key)
	s.Require().NoError(err)
	var out []*models.Process
	s.Require().NoError(json.Unmarshal(data, &out))
	return out
}

func (s *PersisterSuite) TestLoad() {
	s.Run("missing key yields empty collection", func() {
		p, err := New(s.kv)
		s.Require().NoError(err)
		s.Empty(p.Load(s.ctx))
	})

	s.Run("round trips a saved collection", func() {
		p, err := New(s.kv, WithSynchronousWrites(), WithKey("roundtrip"))
		s.Require().NoError(err)
		a, b := s.newProcess("a"), s.newProcess("b")
		a.Fields = append(a.Fields, models.FormField{ID: "f1", Label: "Name", Value: "Ada", Type: models.FieldTypeText, Required: true})
		p.Save(s.ctx, []*models.Process{a, b})

		loaded := p.Load(s.ctx)
		s.Require().Len(loaded, 2)
		s.Equal("a", loaded[0].ID)
		s.Equal("Ada", loaded[0].Fields[0].Value)
		s.Equal(a.CreatedAt, loaded[0].CreatedAt)
		s.Len(loaded[1].ChecklistItems, 4)
	})

	s.Run("accepts everything Save can write", func() {
		p, err := New(s.kv, WithSynchronousWrites(), WithKey("sparse"))
		s.Require().NoError(err)
		sparse := &models.Process{ID: "sparse", Status: models.StatusDraft, Persona: models.DefaultPersona()}
		sparse.Fields = []models.FormField{{Label: "Untyped"}}
		p.Save(s.ctx, []*models.Process{sparse, s.newProcess("full")})

		loaded := p.Load(s.ctx)
		s.Require().Len(loaded, 2)
		s.Require().Len(loaded[0].Fields, 1)
		s.Equal(models.FieldTypeText, loaded[0].Fields[0].Type)
		s.NotNil(loaded[0].Documents)
		s.NotNil(loaded[0].WorkflowGraph)
	})

	s.Run("legacy untyped field loads as text", func() {
		blob := `[{"id":"legacy","type":"visa","title":"Visa","status":"draft",` +
			`"createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z",` +
			`"fields":[{"id":"f1","value":"","type":""}],"documents":[],"checklistItems":[],"workflowGraph":[]}]`
		s.Require().NoError(s.kv.Set(s.ctx, "legacy", []byte(blob)))
		p, err := New(s.kv, WithKey("legacy"))
		s.Require().NoError(err)

		loaded := p.Load(s.ctx)
		s.Require().Len(loaded, 1)
		s.Equal(models.FieldTypeText, loaded[0].Fields[0].Type)
	})

	s.Run("explain log survives a rewrite", func() {
		blob := `[{"id":"web","type":"visa","title":"Visa","status":"draft",` +
			`"createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z",` +
			`"fields":[],"documents":[],"checklistItems":[],"workflowGraph":[],` +
			`"explainWhyLog":[{"fieldId":"f1","reason":"required by agency"}]}]`
		s.Require().NoError(s.kv.Set(s.ctx, "web", []byte(blob)))
		p, err := New(s.kv, WithSynchronousWrites(), WithKey("web"))
		s.Require().NoError(err)

		loaded := p.Load(s.ctx)
		s.Require().Len(loaded, 1)
		p.Save(s.ctx, loaded)

		rewritten := s.stored("web")
		s.Require().Len(rewritten[0].ExplainWhyLog, 1)
		s.JSONEq(`{"fieldId":"f1","reason":"required by agency"}`, string(rewritten[0].ExplainWhyLog[0]))
	})

	s.Run("malformed json yields empty collection", func() {
		s.Require().NoError(s.kv.Set(s.ctx, "bad", []byte(`[{"id": `)))
		p, err := New(s.kv, WithKey("bad"))
		s.Require().NoError(err)
		s.Empty(p.Load(s.ctx))
	})

	s.Run("schema violation yields empty collection", func() {
		s.Require().NoError(s.kv.Set(s.ctx, "invalid", []byte(`[{"id":"x","status":"archived"}]`)))
		p, err := New(s.kv, WithKey("invalid"))
		s.Require().NoError(err)
		s.Empty(p.Load(s.ctx))
	})

	s.Run("blank value yields empty collection", func() {
		s.Require().NoError(s.kv.Set(s.ctx, "blank", []byte("  ")))
		p, err := New(s.kv, WithKey("blank"))
		s.Require().NoError(err)
		s.Empty(p.Load(s.ctx))
	})

	s.Run("backend failure yields empty collection", func() {
		ctrl := gomock.NewController(s.T())
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().Get(gomock.Any(), DefaultKey).Return(nil, errors.New("connection refused"))

		p, err := New(store)
		s.Require().NoError(err)
		s.Empty(p.Load(s.ctx))
	})
}

func (s *PersisterSuite) TestSaveEmptyWritesArray() {
	p, err := New(s.kv, WithSynchronousWrites())
	s.Require().NoError(err)
	p.Save(s.ctx, nil)

	data, err := s.kv.Get(s.ctx, DefaultKey)
	s.Require().NoError(err)
	s.Equal("[]", string(data))
}

func (s *PersisterSuite) TestWriteFailureIsSwallowed() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Set(gomock.Any(), DefaultKey, gomock.Any()).Return(errors.New("disk full"))

	p, err := New(store, WithSynchronousWrites(), WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.NotPanics(func() { p.Save(s.ctx, []*models.Process{s.newProcess("a")}) })
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistenceWrites.WithLabelValues("failure")))
}

func (s *PersisterSuite) TestAsyncNewestSnapshotWins() {
	p, err := New(s.kv, WithMetrics(s.metrics))
	s.Require().NoError(err)

	// queued before the worker starts, so the second replaces the first
	p.Save(s.ctx, []*models.Process{s.newProcess("first")})
	p.Save(s.ctx, []*models.Process{s.newProcess("second"), s.newProcess("first")})
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistenceDropped))

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("persister did not stop")
	}

	stored := s.stored(DefaultKey)
	s.Require().Len(stored, 2)
	s.Equal("second", stored[0].ID)
}

func (s *PersisterSuite) TestSaveAfterShutdownWritesThrough() {
	p, err := New(s.kv)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.Require().NoError(p.Run(ctx))

	p.Save(s.ctx, []*models.Process{s.newProcess("late")})
	stored := s.stored(DefaultKey)
	s.Require().Len(stored, 1)
	s.Equal("late", stored[0].ID)
}

func (s *PersisterSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}
