package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/mocks"
	"github.com/reelforge/reelforge-api/internal/task"
)

type stubService struct {
	tasks *mocks.MemTaskStore

	submittedKind string
	submitErr     error
	retryErr      error
	cancelErr     error
	stats         *task.Stats
}

func (s *stubService) Submit(ctx context.Context, kind, inputRef string, params json.RawMessage) (uuid.UUID, error) {
	if s.submitErr != nil {
		return uuid.Nil, s.submitErr
	}
	s.submittedKind = kind
	t, err := domain.NewTask(kind, inputRef, params)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func (s *stubService) Retry(_ context.Context, _ uuid.UUID) error  { return s.retryErr }
func (s *stubService) Cancel(_ context.Context, _ uuid.UUID) error { return s.cancelErr }

func (s *stubService) Stats(_ context.Context) (*task.Stats, error) {
	if s.stats == nil {
		return &task.Stats{CountByStatus: map[domain.TaskStatus]int{}}, nil
	}
	return s.stats, nil
}

type testServer struct {
	server  *httptest.Server
	service *stubService
	tasks   *mocks.MemTaskStore
	records *mocks.MemCallRecordStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tasks := mocks.NewMemTaskStore()
	records := mocks.NewMemCallRecordStore()
	service := &stubService{tasks: tasks}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	handler := NewTaskHandler(service, tasks, records, logger)
	server := httptest.NewServer(NewRouter(handler, prometheus.NewRegistry()))
	t.Cleanup(server.Close)

	return &testServer{server: server, service: service, tasks: tasks, records: records}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitTask(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{
		InputRef: "docs/chapter1.txt",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeBody[TaskResponse](t, resp)
	assert.Equal(t, domain.TaskKindDocumentToVideo, body.Kind)
	assert.Equal(t, "pending", body.Status)
	assert.Equal(t, "docs/chapter1.txt", body.InputRef)
	assert.NotEmpty(t, body.ID)

	// Omitted kind defaults to document_to_video.
	assert.Equal(t, domain.TaskKindDocumentToVideo, ts.service.submittedKind)
}

func TestSubmitTaskValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/tasks", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+"/api/tasks",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err = ts.server.Client().Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSubmitTaskUnknownKind(t *testing.T) {
	ts := newTestServer(t)
	ts.service.submitErr = fmt.Errorf("%w: %q", task.ErrUnknownKind, "bogus")

	resp := ts.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{
		Kind:     "bogus",
		InputRef: "docs/x.txt",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "Unknown task kind", body.Error)
}

func TestSubmitTaskQueueFull(t *testing.T) {
	ts := newTestServer(t)
	ts.service.submitErr = task.ErrQueueFull

	resp := ts.do(t, http.MethodPost, "/api/tasks", SubmitTaskRequest{InputRef: "docs/x.txt"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGetTask(t *testing.T) {
	ts := newTestServer(t)

	created, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/a.txt", nil)
	require.NoError(t, err)
	ts.tasks.Put(created)

	resp := ts.do(t, http.MethodGet, "/api/tasks/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[TaskResponse](t, resp)
	assert.Equal(t, created.ID.String(), body.ID)

	resp = ts.do(t, http.MethodGet, "/api/tasks/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestListTasksByStatus(t *testing.T) {
	ts := newTestServer(t)

	pending, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/a.txt", nil)
	require.NoError(t, err)
	ts.tasks.Put(pending)

	failed, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/b.txt", nil)
	require.NoError(t, err)
	failed.Status = domain.TaskStatusFailed
	ts.tasks.Put(failed)

	resp := ts.do(t, http.MethodGet, "/api/tasks?status=failed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[[]TaskResponse](t, resp)
	require.Len(t, body, 1)
	assert.Equal(t, failed.ID.String(), body[0].ID)

	resp = ts.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/tasks?status=nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRetryTask(t *testing.T) {
	ts := newTestServer(t)

	failed, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/a.txt", nil)
	require.NoError(t, err)
	failed.Status = domain.TaskStatusFailed
	ts.tasks.Put(failed)

	resp := ts.do(t, http.MethodPost, "/api/tasks/"+failed.ID.String()+"/retry", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ts.service.retryErr = task.ErrNotFailed
	resp = ts.do(t, http.MethodPost, "/api/tasks/"+failed.ID.String()+"/retry", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "Only failed tasks can be retried", body.Error)
}

func TestCancelTask(t *testing.T) {
	ts := newTestServer(t)

	running, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/a.txt", nil)
	require.NoError(t, err)
	running.Status = domain.TaskStatusRunning
	ts.tasks.Put(running)

	resp := ts.do(t, http.MethodPost, "/api/tasks/"+running.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ts.service.cancelErr = task.ErrNotRunning
	resp = ts.do(t, http.MethodPost, "/api/tasks/"+running.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestListCalls(t *testing.T) {
	ts := newTestServer(t)

	owner, err := domain.NewTask(domain.TaskKindDocumentToVideo, "docs/a.txt", nil)
	require.NoError(t, err)
	ts.tasks.Put(owner)

	rec := domain.NewCallRecord(owner.ID, "generate_video", domain.CallOutcomeError, 120*time.Millisecond)
	rec.ErrorMessage = "policy rejection"
	require.NoError(t, ts.records.Append(context.Background(), rec))

	resp := ts.do(t, http.MethodGet, "/api/tasks/"+owner.ID.String()+"/calls", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[[]CallRecordResponse](t, resp)
	require.Len(t, body, 1)
	assert.Equal(t, "generate_video", body[0].Operation)
	assert.Equal(t, "error", body[0].Outcome)

	resp = ts.do(t, http.MethodGet, "/api/tasks/"+uuid.New().String()+"/calls", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGetStats(t *testing.T) {
	ts := newTestServer(t)
	ts.service.stats = &task.Stats{
		WorkerCount:   4,
		ActiveWorkers: 2,
		QueueDepth:    7,
		CountByStatus: map[domain.TaskStatus]int{
			domain.TaskStatusRunning: 2,
			domain.TaskStatusPending: 7,
		},
	}

	resp := ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[StatsResponse](t, resp)
	assert.Equal(t, 4, body.WorkerCount)
	assert.Equal(t, 2, body.ActiveWorkers)
	assert.Equal(t, 7, body.QueueDepth)
	assert.Equal(t, 2, body.CountByStatus["running"])
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
