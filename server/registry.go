package server

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/dataset"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// runRecord tracks one submitted run. Fields after mu are guarded by it.
type runRecord struct {
	id      string
	cfg     matdisco.Config
	created time.Time
	done    chan struct{}

	mu       sync.Mutex
	status   Status
	result   *matdisco.Result
	err      error
	finished time.Time
}

func newRunRecord(id string, cfg matdisco.Config) *runRecord {
	return &runRecord{
		id:      id,
		cfg:     cfg,
		created: time.Now(),
		done:    make(chan struct{}),
		status:  StatusRunning,
	}
}

func (r *runRecord) finish(res *matdisco.Result, err error) {
	r.mu.Lock()
	r.result, r.err = res, err
	r.finished = time.Now()
	if err != nil {
		r.status = StatusFailed
	} else {
		r.status = StatusSucceeded
	}
	r.mu.Unlock()
	close(r.done)
}

// RunView is the JSON representation of a run.
type RunView struct {
	ID        string           `json:"id"`
	Status    Status           `json:"status"`
	Config    matdisco.Config  `json:"config"`
	Created   time.Time        `json:"created"`
	Finished  *time.Time       `json:"finished,omitempty"`
	Result    *matdisco.Result `json:"result,omitempty"`
	Snapshots int              `json:"snapshots"`
	Error     string           `json:"error,omitempty"`
}

func (r *runRecord) view() RunView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := RunView{
		ID:      r.id,
		Status:  r.status,
		Config:  r.cfg,
		Created: r.created,
		Result:  r.result,
	}
	if !r.finished.IsZero() {
		f := r.finished
		v.Finished = &f
	}
	if r.result != nil {
		v.Snapshots = len(r.result.Snapshots)
	}
	if r.err != nil {
		v.Error = r.err.Error()
	}
	return v
}

func (r *runRecord) snapshots() []*dataset.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return nil
	}
	return r.result.Snapshots
}

// registry keeps the most recent runs. Evicted runs are still served from
// the snapshot store when one is configured.
type registry struct {
	mu   sync.Mutex
	runs *lru.Cache[string, *runRecord]
}

func newRegistry(size int) (*registry, error) {
	runs, err := lru.New[string, *runRecord](size)
	if err != nil {
		return nil, err
	}
	return &registry{runs: runs}, nil
}

func (r *registry) add(rec *runRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs.Add(rec.id, rec)
}

func (r *registry) get(id string) (*runRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs.Get(id)
}
