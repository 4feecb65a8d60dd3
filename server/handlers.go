package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/snapshot"
)

const maxRequestBytes = 64 << 20

// CreateRunRequest is the body of POST /v1/runs. Config fields left out
// keep their defaults; Datasets maps dataset names to CSV text.
type CreateRunRequest struct {
	Config   matdisco.Config   `json:"config"`
	Datasets map[string]string `json:"datasets"`
}

// handleCreateRun parses the datasets, validates the config and starts
// the run in the background.
func (s *Server) handleCreateRun(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		handleError(c, NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	req := CreateRunRequest{Config: matdisco.DefaultConfig()}
	if err := s.codec.Unmarshal(body, &req); err != nil {
		handleError(c, NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if len(req.Datasets) == 0 {
		handleError(c, NewAppError(http.StatusBadRequest, "Missing datasets", nil))
		return
	}

	datasets := make(dataset.Collection, len(req.Datasets))
	for name, text := range req.Datasets {
		t, err := dataset.ReadCSV(strings.NewReader(text), name)
		if err != nil {
			handleError(c, fmt.Errorf("%w: dataset %q: %w", ErrInvalidInput, name, err))
			return
		}
		datasets[name] = t
	}

	id := uuid.NewString()
	opts := []matdisco.Option{
		matdisco.WithLogger(s.logger),
		matdisco.WithMetricsCollector(s.metrics),
		matdisco.WithRunID(id),
	}
	if s.sink != nil {
		opts = append(opts, matdisco.WithSnapshotSink(s.sink))
	}
	aug, err := matdisco.New(datasets, req.Config, opts...)
	if err != nil {
		handleError(c, err)
		return
	}

	rec := newRunRecord(id, aug.Config())
	s.runs.add(rec)
	s.start(rec, aug)

	if c.Query("wait") == "true" {
		select {
		case <-rec.done:
		case <-c.Request.Context().Done():
		}
		s.writeJSON(c, http.StatusOK, rec.view())
		return
	}
	s.writeJSON(c, http.StatusAccepted, rec.view())
}

func (s *Server) start(rec *runRecord, aug *matdisco.Augmenter) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := aug.Run(s.ctx)
		rec.finish(res, err)
	}()
}

// handleGetRun returns the status of a run.
func (s *Server) handleGetRun(c *gin.Context) {
	rec, ok := s.runs.get(c.Param("id"))
	if !ok {
		handleError(c, fmt.Errorf("%w: run %q", ErrNotFound, c.Param("id")))
		return
	}
	s.writeJSON(c, http.StatusOK, rec.view())
}

// handleGetSnapshot returns one snapshot table as CSV.
func (s *Server) handleGetSnapshot(c *gin.Context) {
	id := c.Param("id")
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		handleError(c, NewAppError(http.StatusBadRequest, "Invalid snapshot number", err))
		return
	}

	t, err := s.lookupSnapshot(c.Request.Context(), id, n)
	if err != nil {
		handleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, t); err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) lookupSnapshot(ctx context.Context, id string, n int) (*dataset.Table, error) {
	if rec, ok := s.runs.get(id); ok {
		snaps := rec.snapshots()
		if n < len(snaps) {
			return snaps[n], nil
		}
		if s.sink == nil {
			return nil, fmt.Errorf("%w: snapshot %d of run %q", ErrNotFound, n, id)
		}
	}
	if s.sink == nil {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, id)
	}
	return s.sink.Load(ctx, id, n)
}

func (s *Server) writeJSON(c *gin.Context, code int, v any) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(code, "application/json; charset=utf-8", data)
}

func handleError(c *gin.Context, err error) {
	appErr := MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
