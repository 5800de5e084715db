package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
	"github.com/reelforge/reelforge-api/internal/task"
)

// TaskService is the scheduler surface the handler drives. *task.Runner
// implements it.
type TaskService interface {
	Submit(ctx context.Context, kind, inputRef string, params json.RawMessage) (uuid.UUID, error)
	Retry(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*task.Stats, error)
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	service   TaskService
	tasks     store.TaskStore
	records   store.CallRecordStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(service TaskService, tasks store.TaskStore, records store.CallRecordStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service:   service,
		tasks:     tasks,
		records:   records,
		validator: validator.New(),
		logger:    logger,
	}
}

// SubmitTask handles POST /api/tasks.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.TaskKindDocumentToVideo
	}

	id, err := h.service.Submit(r.Context(), kind, req.InputRef, req.Params)
	if err != nil {
		h.logger.Error("failed to submit task", "error", err, "input_ref", req.InputRef)
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	created, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load submitted task", "error", err, "task_id", id)
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	// Processing is asynchronous, so the submission answers 202.
	respondWithJSON(w, http.StatusAccepted, taskToResponse(created))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}
	respondWithJSON(w, http.StatusOK, taskToResponse(t))
}

// ListTasks handles GET /api/tasks?status=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := domain.TaskStatus(r.URL.Query().Get("status"))
	if status == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'status' is required")
		return
	}
	if !status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Unknown status value")
		return
	}

	tasks, err := h.tasks.ListByStatus(r.Context(), status)
	if err != nil {
		h.logger.Error("failed to list tasks", "error", err, "status", status)
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, taskToResponse(t))
	}
	respondWithJSON(w, http.StatusOK, responses)
}

// RetryTask handles POST /api/tasks/{id}/retry.
func (h *TaskHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Retry(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	t, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}
	respondWithJSON(w, http.StatusOK, taskToResponse(t))
}

// CancelTask handles POST /api/tasks/{id}/cancel.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	t, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}
	respondWithJSON(w, http.StatusOK, taskToResponse(t))
}

// ListCalls handles GET /api/tasks/{id}/calls.
func (h *TaskHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	// 404 for an unknown task rather than an empty audit trail.
	if _, err := h.tasks.GetByID(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	records, err := h.records.ListByTask(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list call records", "error", err, "task_id", id)
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}

	responses := make([]CallRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, callRecordToResponse(rec))
	}
	respondWithJSON(w, http.StatusOK, responses)
}

// GetStats handles GET /api/stats.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to collect stats", "error", err)
		respondWithError(w, mapErrorToStatusCode(err), safeErrorMessage(err))
		return
	}
	respondWithJSON(w, http.StatusOK, statsToResponse(stats))
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}
