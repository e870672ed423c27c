package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clarity/internal/process/models"
	"clarity/internal/process/service"
	"clarity/internal/process/workflow"
	dErrors "clarity/pkg/domain-errors"
	"clarity/pkg/platform/httputil"
	"clarity/pkg/requestcontext"
)

// Service defines the process operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, processType, title, description string) *models.Process
	Get(ctx context.Context, id string) (*models.Process, error)
	List(ctx context.Context) []*models.Process
	Current(ctx context.Context) (*models.Process, bool)
	SetCurrent(ctx context.Context, id string) bool
	Update(ctx context.Context, id string, patch models.Patch) error
	Delete(ctx context.Context, id string)

	AddFields(ctx context.Context, id string, fields []models.FormField)
	UpdateFieldValue(ctx context.Context, id, fieldID, value string)
	AddDocument(ctx context.Context, id string, doc models.ProcessDocument) (models.ProcessDocument, bool)
	ApplyExtraction(ctx context.Context, id, documentID string, extraction service.Extraction)
	ApplyGeneratedFields(ctx context.Context, id string, descriptors []service.FieldDescriptor) error

	Validate(ctx context.Context, id string) (*models.Process, bool)
	Review(ctx context.Context, id string) (*service.Review, error)
	WorkflowStatus(ctx context.Context, id string) ([]workflow.NodeStatus, error)
	CompleteChecklistItem(ctx context.Context, id, itemID string)
	CompleteNode(ctx context.Context, id, nodeID string) error
	MarkReady(ctx context.Context, id string) error

	SetPersona(ctx context.Context, id string, persona models.Persona) error
	SetDataExpiry(ctx context.Context, id string, enabled bool)
	SetVoiceEnabled(ctx context.Context, id string, enabled bool)
}

// Handler wires process endpoints to the process service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a process handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts process endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/processes", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/current", h.HandleGetCurrent)
		r.Put("/current", h.HandleSetCurrent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandlePatch)
			r.Delete("/", h.HandleDelete)

			r.Post("/fields", h.HandleAddFields)
			r.Put("/fields/{fieldID}/value", h.HandleUpdateFieldValue)
			r.Post("/generated-fields", h.HandleGeneratedFields)
			r.Post("/documents", h.HandleAddDocument)
			r.Post("/documents/{documentID}/extraction", h.HandleExtraction)

			r.Post("/validate", h.HandleValidate)
			r.Get("/review", h.HandleReview)
			r.Get("/workflow", h.HandleWorkflow)
			r.Post("/workflow/{nodeID}/complete", h.HandleCompleteNode)
			r.Post("/checklist/{itemID}/complete", h.HandleCompleteChecklistItem)
			r.Post("/ready", h.HandleMarkReady)

			r.Put("/persona", h.HandleSetPersona)
			r.Put("/data-expiry", h.HandleSetDataExpiry)
			r.Put("/voice", h.HandleSetVoice)
		})
	})
}

// HandleList handles GET /processes.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Processes: h.service.List(r.Context())})
}

// HandleCreate handles POST /processes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateProcessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p := h.service.Create(ctx, req.Type, req.Title, req.Description)
	h.logger.InfoContext(ctx, "process created via api",
		"request_id", requestID,
		"process_id", p.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleGetCurrent handles GET /processes/current.
func (h *Handler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.service.Current(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no current process"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleSetCurrent handles PUT /processes/current.
func (h *Handler) HandleSetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetCurrentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if !h.service.SetCurrent(ctx, req.ID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "process not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /processes/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandlePatch handles PATCH /processes/{id}.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PatchProcessRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Update(ctx, id, req.Patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProcess(w, r, id)
}

// HandleDelete handles DELETE /processes/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	h.service.Delete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddFields handles POST /processes/{id}/fields.
func (h *Handler) HandleAddFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddFieldsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.service.AddFields(ctx, id, req.Fields)
	h.writeProcess(w, r, id)
}

// HandleUpdateFieldValue handles PUT /processes/{id}/fields/{fieldID}/value.
func (h *Handler) HandleUpdateFieldValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.loadProcess(w, r)
	if !ok {
		return
	}
	fieldID := chi.URLParam(r, "fieldID")
	if _, found := p.FieldByID(fieldID); !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "field not found"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[FieldValueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.service.UpdateFieldValue(ctx, p.ID, fieldID, req.Value)
	h.writeProcess(w, r, p.ID)
}

// HandleGeneratedFields handles POST /processes/{id}/generated-fields.
func (h *Handler) HandleGeneratedFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[GeneratedFieldsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.ApplyGeneratedFields(ctx, id, req.Fields); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProcess(w, r, id)
}

// HandleAddDocument handles POST /processes/{id}/documents.
func (h *Handler) HandleAddDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	doc, found := h.service.AddDocument(ctx, id, req.toDocument())
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "process not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandleExtraction handles POST /processes/{id}/documents/{documentID}/extraction.
func (h *Handler) HandleExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.loadProcess(w, r)
	if !ok {
		return
	}
	documentID := chi.URLParam(r, "documentID")
	if _, found := p.DocumentByID(documentID); !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not found"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ExtractionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.service.ApplyExtraction(ctx, p.ID, documentID, req.Extraction)
	h.writeProcess(w, r, p.ID)
}

// HandleValidate handles POST /processes/{id}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	p, found := h.service.Validate(r.Context(), chi.URLParam(r, "id"))
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "process not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleReview handles GET /processes/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Review(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// HandleWorkflow handles GET /processes/{id}/workflow.
func (h *Handler) HandleWorkflow(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.WorkflowStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WorkflowResponse{Nodes: statuses})
}

// HandleCompleteNode handles POST /processes/{id}/workflow/{nodeID}/complete.
func (h *Handler) HandleCompleteNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.loadProcess(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if _, found := p.NodeByID(nodeID); !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "workflow node not found"))
		return
	}
	if err := h.service.CompleteNode(ctx, p.ID, nodeID); err != nil {
		h.logger.InfoContext(ctx, "workflow node completion rejected",
			"request_id", requestcontext.RequestID(ctx),
			"process_id", p.ID,
			"node_id", nodeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeProcess(w, r, p.ID)
}

// HandleCompleteChecklistItem handles POST /processes/{id}/checklist/{itemID}/complete.
func (h *Handler) HandleCompleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProcess(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if _, found := p.ChecklistItemByID(itemID); !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "checklist item not found"))
		return
	}
	h.service.CompleteChecklistItem(r.Context(), p.ID, itemID)
	h.writeProcess(w, r, p.ID)
}

// HandleMarkReady handles POST /processes/{id}/ready.
func (h *Handler) HandleMarkReady(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkReady(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProcess(w, r, id)
}

// HandleSetPersona handles PUT /processes/{id}/persona.
func (h *Handler) HandleSetPersona(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PersonaRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetPersona(ctx, id, req.toPersona()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProcess(w, r, id)
}

// HandleSetDataExpiry handles PUT /processes/{id}/data-expiry.
func (h *Handler) HandleSetDataExpiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ToggleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.service.SetDataExpiry(ctx, id, *req.Enabled)
	h.writeProcess(w, r, id)
}

// HandleSetVoice handles PUT /processes/{id}/voice.
func (h *Handler) HandleSetVoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.requireProcess(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ToggleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.service.SetVoiceEnabled(ctx, id, *req.Enabled)
	h.writeProcess(w, r, id)
}

// requireProcess resolves the {id} parameter, writing a 404 when the
// process does not exist. Service mutations ignore unknown ids, so the
// existence check happens here.
func (h *Handler) requireProcess(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := h.loadProcess(w, r)
	if !ok {
		return "", false
	}
	return p.ID, true
}

func (h *Handler) loadProcess(w http.ResponseWriter, r *http.Request) (*models.Process, bool) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) writeProcess(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		// deleted concurrently
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
