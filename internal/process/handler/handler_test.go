package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarity/internal/kv"
	"clarity/internal/process/models"
	"clarity/internal/process/service"
	"clarity/internal/process/store"
	"clarity/internal/process/workflow"
	"clarity/pkg/testutil"
)

func newProcessRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	persister, err := store.New(kv.NewInMemory(), store.WithSynchronousWrites())
	require.NoError(t, err)
	svc, err := service.New(persister)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, svc
}

func createProcess(t *testing.T, router http.Handler) *models.Process {
	t.Helper()
	rec := testutil.DoJSON(t, router, http.MethodPost, "/processes", map[string]string{"type": "visa", "title": "Visa renewal"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return testutil.Decode[*models.Process](t, rec)
}

func TestCreateAndFetchProcess(t *testing.T) {
	router, _ := newProcessRouter(t)

	p := createProcess(t, router)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.StatusDraft, p.Status)
	assert.Len(t, p.ChecklistItems, 4)
	assert.Len(t, p.WorkflowGraph, 4)

	rec := testutil.DoJSON(t, router, http.MethodGet, "/processes/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, p.ID, testutil.Decode[*models.Process](t, rec).ID)

	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, p.ID, testutil.Decode[*models.Process](t, rec).ID)

	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testutil.Decode[ListResponse](t, rec).Processes, 1)
}

func TestCreateProcessRejectsInvalidBody(t *testing.T) {
	router, _ := newProcessRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing title", `{"type":"visa"}`},
		{"missing type", `{"title":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Do(router, testutil.NewRawRequest(http.MethodPost, "/processes", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUnknownProcessIsNotFound(t *testing.T) {
	router, _ := newProcessRouter(t)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/processes/missing", nil},
		{http.MethodPatch, "/processes/missing", map[string]string{"title": "x"}},
		{http.MethodDelete, "/processes/missing", nil},
		{http.MethodPost, "/processes/missing/fields", AddFieldsRequest{}},
		{http.MethodPost, "/processes/missing/validate", nil},
		{http.MethodGet, "/processes/missing/review", nil},
		{http.MethodGet, "/processes/missing/workflow", nil},
		{http.MethodPost, "/processes/missing/ready", nil},
		{http.MethodPut, "/processes/missing/voice", map[string]bool{"enabled": true}},
		{http.MethodPut, "/processes/current", map[string]string{"id": "missing"}},
	}
	for _, tt := range requests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.DoJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestPatchAndDelete(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPatch, "/processes/"+p.ID, map[string]any{"title": "Renamed", "status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, models.StatusInProgress, got.Status)

	rec = testutil.DoJSON(t, router, http.MethodPatch, "/processes/"+p.ID, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPatch, "/processes/"+p.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPatch, "/processes/"+p.ID, map[string]any{
		"workflowGraph": []map[string]any{{"id": "n1", "label": "Start"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "untyped workflow nodes are rejected")

	rec = testutil.DoJSON(t, router, http.MethodDelete, "/processes/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFieldLifecycle(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/fields", map[string]any{
		"fields": []map[string]any{{"id": "f1", "label": "Full name", "required": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, models.FieldTypeText, got.Fields[0].Type)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/fields", map[string]any{
		"fields": []map[string]any{{"id": "f2", "type": "checkbox"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/fields/missing/value", FieldValueRequest{Value: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/fields/f1/value", FieldValueRequest{Value: "Ada"})
	require.Equal(t, http.StatusOK, rec.Code)
	got = testutil.Decode[*models.Process](t, rec)
	assert.Equal(t, "Ada", got.Fields[0].Value)
	assert.Equal(t, 100, got.ReadinessScore)
}

func TestDocumentAndExtraction(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/documents", AddDocumentRequest{Name: "passport.png", MimeType: "image/png"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := testutil.Decode[models.ProcessDocument](t, rec)
	require.NotEmpty(t, doc.ID)
	assert.False(t, doc.UploadedAt.IsZero())

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/documents/unknown/extraction", map[string]any{"extractedFields": []any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/documents/"+doc.ID+"/extraction", map[string]any{
		"extractedFields": []map[string]any{
			{"key": "Passport Number", "value": "X1", "confidence": 0.9},
			{"key": "Blurry", "value": "?", "confidence": 0.2},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "passport_number", got.Fields[0].Name)
	assert.True(t, got.Documents[0].Parsed)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/documents/"+doc.ID+"/extraction", map[string]any{
		"extractedFields": []map[string]any{{"key": "x", "value": "y", "confidence": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratedFields(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/generated-fields", map[string]any{
		"fields": []map[string]any{{"id": "dob", "label": "Date of birth", "type": "date", "required": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "date_of_birth", got.Fields[0].Name)
	item, _ := got.ChecklistItemByID(models.ChecklistDescribeSituation)
	assert.True(t, item.Completed)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/generated-fields", map[string]any{
		"fields": []map[string]any{{"label": "no id"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationReviewAndReady(t *testing.T) {
	router, svc := newProcessRouter(t)
	p := createProcess(t, router)
	svc.AddFields(context.Background(), p.ID, []models.FormField{{ID: "f1", Label: "Name", Required: true}})

	rec := testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	assert.NotEmpty(t, got.ValidationIssues)
	assert.Equal(t, 0, got.ReadinessScore)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/ready", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	svc.UpdateFieldValue(context.Background(), p.ID, "f1", "Ada")
	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusReady, testutil.Decode[*models.Process](t, rec).Status)

	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes/"+p.ID+"/review", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	review := testutil.Decode[service.Review](t, rec)
	assert.True(t, review.CanSubmit)
	assert.InDelta(t, 56.0, review.Score.Base, 1e-9)
	assert.Len(t, review.Workflow, 4)
}

func TestWorkflowEndpoints(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)
	base := "/processes/" + p.ID + "/workflow/"

	rec := testutil.DoJSON(t, router, http.MethodPost, base+models.NodeDocuments+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPost, base+"node-99/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPost, base+models.NodeConsultation+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes/"+p.ID+"/workflow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := testutil.Decode[WorkflowResponse](t, rec).Nodes
	require.Len(t, nodes, 4)
	assert.Equal(t, workflow.StateComplete, nodes[0].State)
	assert.Equal(t, workflow.StateReady, nodes[1].State)
	assert.Equal(t, []string{models.NodeDocuments}, nodes[2].BlockedBy)

	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/checklist/"+models.ChecklistReview+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = testutil.DoJSON(t, router, http.MethodPost, "/processes/"+p.ID+"/checklist/99/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	router, _ := newProcessRouter(t)
	p := createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/persona", PersonaRequest{Type: "lawyer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/persona", PersonaRequest{Type: "parent", Name: "Mum"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PersonaParent, testutil.Decode[*models.Process](t, rec).Persona.Type)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/data-expiry", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/data-expiry", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	assert.True(t, got.DataExpiry.Enabled)
	require.NotNil(t, got.DataExpiry.AutoDeleteAfterDays)
	assert.Equal(t, service.DefaultDataExpiryDays, *got.DataExpiry.AutoDeleteAfterDays)

	rec = testutil.DoJSON(t, router, http.MethodPut, "/processes/"+p.ID+"/voice", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, testutil.Decode[*models.Process](t, rec).VoiceEnabled)
}

func TestSetCurrentClears(t *testing.T) {
	router, _ := newProcessRouter(t)
	createProcess(t, router)

	rec := testutil.DoJSON(t, router, http.MethodPut, "/processes/current", SetCurrentRequest{})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = testutil.DoJSON(t, router, http.MethodGet, "/processes/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestTimeStampsMutations(t *testing.T) {
	router, _ := newProcessRouter(t)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/processes", CreateProcessRequest{Type: "visa", Title: "Visa"})
	rec := testutil.Do(router, testutil.WithRequestTime(req, fixed))
	require.Equal(t, http.StatusCreated, rec.Code)
	p := testutil.Decode[*models.Process](t, rec)
	assert.True(t, p.CreatedAt.Equal(fixed))
	assert.True(t, p.UpdatedAt.Equal(fixed))

	later := fixed.Add(time.Hour)
	req = testutil.NewJSONRequest(t, http.MethodPut, "/processes/"+p.ID+"/voice", map[string]bool{"enabled": true})
	rec = testutil.Do(router, testutil.WithRequestID(testutil.WithRequestTime(req, later), "req-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.Decode[*models.Process](t, rec)
	assert.True(t, got.UpdatedAt.Equal(later))
	assert.True(t, got.CreatedAt.Equal(fixed))
}
