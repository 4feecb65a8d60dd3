package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/snapshot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	accCSV = "formula,target\nNaCl,1\nKCl,2\nLiF,3\nNaF,4\n"
	donCSV = "formula,target\nCsCl,1\nRbBr,2\nFe2O3,3\nAl2O3,4\nSiO2,5\nMgO,6\n"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	srv, err := NewServer(opts...)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	srv.Handler().ServeHTTP(w, req)
	return w
}

func runBody(t *testing.T, mutate func(*CreateRunRequest)) string {
	t.Helper()
	cfg := matdisco.DefaultConfig()
	cfg.Acceptor, cfg.Donor = "acc", "don"
	cfg.Threshold = 0
	cfg.BatchSize = 2
	cfg.Iterations = 2
	req := CreateRunRequest{
		Config:   cfg,
		Datasets: map[string]string{"acc": accCSV, "don": donCSV},
	}
	if mutate != nil {
		mutate(&req)
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return string(data)
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) RunView {
	t.Helper()
	var v RunView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	w := do(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRun_Wait(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, http.MethodPost, "/v1/runs?wait=true", runBody(t, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	run := decodeRun(t, w)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.Equal(t, 3, run.Snapshots)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Admitted, 4)
	assert.NotNil(t, run.Finished)

	w = do(srv, http.MethodGet, "/v1/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, run.ID, decodeRun(t, w).ID)

	w = do(srv, http.MethodGet, "/v1/runs/"+run.ID+"/snapshots/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	table, err := dataset.ReadCSV(strings.NewReader(w.Body.String()), "final")
	require.NoError(t, err)
	assert.Equal(t, 8, table.Len())

	w = do(srv, http.MethodGet, "/v1/runs/"+run.ID+"/snapshots/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(srv, http.MethodGet, "/v1/runs/"+run.ID+"/snapshots/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRun_Async(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, http.MethodPost, "/v1/runs", runBody(t, nil))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	run := decodeRun(t, w)
	require.NotEmpty(t, run.ID)

	rec, ok := srv.runs.get(run.ID)
	require.True(t, ok)
	<-rec.done

	w = do(srv, http.MethodGet, "/v1/runs/"+run.ID, "")
	assert.Equal(t, StatusSucceeded, decodeRun(t, w).Status)
}

func TestCreateRun_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"Malformed", "{", http.StatusBadRequest},
		{"NoDatasets", runBody(t, func(r *CreateRunRequest) { r.Datasets = nil }), http.StatusBadRequest},
		{"BadCSV", runBody(t, func(r *CreateRunRequest) { r.Datasets["don"] = "name,value\n" }), http.StatusBadRequest},
		{"UnknownDataset", runBody(t, func(r *CreateRunRequest) { r.Config.Donor = "dom" }), http.StatusBadRequest},
		{"InvalidConfig", runBody(t, func(r *CreateRunRequest) { r.Config.Iterations = 0 }), http.StatusBadRequest},
		{"EmptyDonor", runBody(t, func(r *CreateRunRequest) { r.Datasets["don"] = "formula,target\n" }), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, http.MethodPost, "/v1/runs", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, http.MethodGet, "/v1/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(srv, http.MethodGet, "/v1/runs/nope/snapshots/0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotSink_ServesEvictedRuns(t *testing.T) {
	store := blobstore.NewMemoryStore()
	srv := newTestServer(t, WithSnapshotSink(snapshot.NewSink(store)), WithMaxRuns(1))

	first := decodeRun(t, do(srv, http.MethodPost, "/v1/runs?wait=true", runBody(t, nil)))
	second := decodeRun(t, do(srv, http.MethodPost, "/v1/runs?wait=true", runBody(t, nil)))
	require.Equal(t, StatusSucceeded, first.Status)
	require.Equal(t, StatusSucceeded, second.Status)

	w := do(srv, http.MethodGet, "/v1/runs/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "evicted from memory")

	w = do(srv, http.MethodGet, "/v1/runs/"+first.ID+"/snapshots/0", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	table, err := dataset.ReadCSV(strings.NewReader(w.Body.String()), "initial")
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	names, err := snapshot.List(t.Context(), store, first.ID)
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(srv, http.MethodPost, "/v1/runs?wait=true", runBody(t, nil))

	w := do(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "matdisco_runs_total")
	assert.Contains(t, w.Body.String(), "matdisco_rows_moved_total 4")
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.Equal(t, http.StatusBadRequest, MapError(matdisco.ErrInvalidConfig).Code)
	assert.Equal(t, http.StatusNotFound, MapError(blobstore.ErrNotFound).Code)
	assert.Equal(t, http.StatusInternalServerError, MapError(assert.AnError).Code)

	appErr := NewAppError(http.StatusTeapot, "short and stout", nil)
	assert.Same(t, appErr, MapError(appErr))
	assert.Equal(t, "short and stout", appErr.Error())
}
