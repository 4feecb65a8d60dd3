package matdisco

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/matdisco/cluster"
	"github.com/hupe1980/matdisco/composition"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/density"
	"github.com/hupe1980/matdisco/embedding"
	"github.com/hupe1980/matdisco/internal/resource"
	"github.com/hupe1980/matdisco/partition"
	"github.com/hupe1980/matdisco/predict"
	"github.com/hupe1980/matdisco/score"
)

// SnapshotSink receives every snapshot of a run in order. seq is 0 for
// the initial acceptor state.
type SnapshotSink interface {
	Save(ctx context.Context, runID string, seq int, t *dataset.Table) error
}

// StopReason tells why a run ended.
type StopReason int

const (
	// StopExhaustedBudget means every iteration moved rows.
	StopExhaustedBudget StopReason = iota
	// StopNoQualifying means an iteration found no donor to move.
	StopNoQualifying
	// StopDonorPoolEmpty means every donor was admitted.
	StopDonorPoolEmpty
)

func (r StopReason) String() string {
	switch r {
	case StopExhaustedBudget:
		return "exhausted budget"
	case StopNoQualifying:
		return "no qualifying donors"
	case StopDonorPoolEmpty:
		return "donor pool empty"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r StopReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *StopReason) UnmarshalText(text []byte) error {
	for _, c := range []StopReason{StopExhaustedBudget, StopNoQualifying, StopDonorPoolEmpty} {
		if c.String() == string(text) {
			*r = c
			return nil
		}
	}
	return fmt.Errorf("unknown stop reason %q", text)
}

// Result is the outcome of one run.
type Result struct {
	RunID string `json:"run_id"`
	// Snapshots holds the acceptor table after every iteration that moved
	// rows, preceded by the initial state. A run that stops because no
	// donor qualifies ends with one unmodified snapshot.
	Snapshots []*dataset.Table `json:"-"`
	// Admitted lists moved pool indices in admission order. Pool indices
	// count acceptor rows first, then donor rows.
	Admitted   []int      `json:"admitted"`
	Iterations int        `json:"iterations"`
	StopReason StopReason `json:"stop_reason"`
}

// Final returns the last snapshot.
func (r *Result) Final() *dataset.Table {
	return r.Snapshots[len(r.Snapshots)-1]
}

// Augmenter moves donor rows into the acceptor set by combined predicted
// value and density novelty.
//
// An Augmenter is immutable once built; each Run starts from the initial
// partition. Concurrent Runs are safe only if the configured predictor
// is.
type Augmenter struct {
	cfg       Config
	pool      *dataset.Table
	nAcceptor int
	combiner  score.Combiner
	opts      options
}

// New resolves the acceptor and donor datasets and builds an Augmenter.
//
// Example:
//
//	cfg := matdisco.DefaultConfig()
//	cfg.Acceptor, cfg.Donor = "train", "candidates"
//	aug, err := matdisco.New(datasets, cfg)
//	res, err := aug.Run(ctx)
func New(datasets dataset.Collection, cfg Config, optFns ...Option) (*Augmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	acceptor, err := datasets.Lookup(cfg.Acceptor)
	if err != nil {
		return nil, err
	}
	var donor *dataset.Table
	if cfg.SelfAugment > 0 {
		acceptor, donor = acceptor.Split(int(float64(acceptor.Len()) * cfg.SelfAugment))
	} else if donor, err = datasets.Lookup(cfg.Donor); err != nil {
		return nil, err
	}
	if acceptor.Len() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyAcceptor, cfg.Acceptor)
	}
	if donor.Len() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyDonor, donor.Name)
	}

	pool, err := dataset.Concat(acceptor.Name, acceptor, donor)
	if err != nil {
		return nil, err
	}

	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.embedder == nil {
		metric, err := composition.NewEMDMetric()
		if err != nil {
			return nil, err
		}
		opts.embedder = embedding.NewMDS(metric, embedding.MDSOptions{
			Resources: resource.NewController(opts.resources),
		})
	}
	if cfg.Clusters && opts.clusterer == nil {
		opts.clusterer = cluster.KMeans{Seed: cfg.RandomState}
	}

	return &Augmenter{
		cfg:       cfg,
		pool:      pool,
		nAcceptor: acceptor.Len(),
		combiner: score.Combiner{
			Kind:        cfg.Scaler,
			PredWeight:  cfg.PredWeight,
			ProxyWeight: cfg.ProxyWeight,
		},
		opts: opts,
	}, nil
}

// Config returns the run configuration.
func (a *Augmenter) Config() Config { return a.cfg }

// Pool returns the combined table: acceptor rows followed by donor rows.
func (a *Augmenter) Pool() *dataset.Table { return a.pool }

// runState is the mutable state of one Run.
type runState struct {
	id       string
	log      *Logger
	part     *partition.Partition
	emb      *embedding.Embedding
	baseline []float64   // predictions indexed by pool row; acceptor slots unused
	labels   map[int]int // cluster label per donor pool row
	res      *Result
}

// Run executes the augmentation loop and returns every snapshot taken.
func (a *Augmenter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	id := a.opts.runID
	if id == "" {
		id = uuid.NewString()
	}
	st := &runState{
		id:   id,
		log:  a.opts.logger.WithRunID(id),
		part: partition.New(a.nAcceptor, a.pool.Len()-a.nAcceptor),
		res:  &Result{RunID: id},
	}

	err := a.run(ctx, st)
	a.opts.metricsCollector.RecordRun(st.res.Iterations, len(st.res.Admitted), time.Since(start), err)
	if err != nil {
		st.log.LogRun(ctx, nil, err)
		return nil, err
	}
	st.log.LogRun(ctx, st.res, nil)
	return st.res, nil
}

func (a *Augmenter) run(ctx context.Context, st *runState) error {
	if err := a.fitBaseline(ctx, st); err != nil {
		return err
	}
	if err := a.embed(ctx, st); err != nil {
		return err
	}
	if err := a.snapshot(ctx, st); err != nil {
		return err
	}

	st.res.StopReason = StopExhaustedBudget
	for iter := 0; iter < a.cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		iterStart := time.Now()

		donors := st.part.Donors()
		scores, err := a.score(st, donors)
		if err != nil {
			return err
		}

		cands := candidates(donors, scores)
		var picked []candidate
		if st.labels != nil {
			picked = selectClustered(cands, st.labels, a.cfg)
		} else {
			picked = selectBatch(cands, a.cfg)
		}

		if len(picked) == 0 {
			st.res.StopReason = StopNoQualifying
			return a.snapshot(ctx, st)
		}

		moved := indices(picked)
		if err := st.part.Move(moved); err != nil {
			return err
		}
		if err := st.part.Verify(); err != nil {
			return stageError("partition", err)
		}
		st.res.Admitted = append(st.res.Admitted, moved...)
		st.res.Iterations++

		a.opts.metricsCollector.RecordIteration(len(moved), st.part.DonorLen(), time.Since(iterStart))
		st.log.LogIteration(ctx, iter, len(moved), st.part.DonorLen(), picked[0].score)

		if err := a.snapshot(ctx, st); err != nil {
			return err
		}
		if st.part.DonorLen() == 0 {
			st.res.StopReason = StopDonorPoolEmpty
			return nil
		}
	}
	return nil
}

// fitBaseline trains the predictor on the acceptor rows and predicts every
// donor row once.
func (a *Augmenter) fitBaseline(ctx context.Context, st *runState) error {
	x, err := predict.Features(a.pool)
	if err != nil {
		return stageError("features", err)
	}
	y := a.pool.Targets()

	p := a.opts.predictor
	if p == nil {
		if p, err = predict.New(a.cfg.Model, a.cfg.RandomState); err != nil {
			return stageError("predict", err)
		}
	}

	n := a.nAcceptor
	if err := p.Fit(ctx, x[:n], y[:n]); err != nil {
		return stageError("predict", err)
	}
	pred, err := p.Predict(x[n:])
	if err != nil {
		return stageError("predict", err)
	}
	if len(pred) != len(x)-n {
		return stageError("predict", fmt.Errorf("%d predictions for %d donors", len(pred), len(x)-n))
	}

	st.baseline = make([]float64, len(x))
	copy(st.baseline[n:], pred)

	st.log.InfoContext(ctx, "predictor fitted",
		"model", a.cfg.Model.String(),
		"acceptors", n,
		"donors", len(pred),
		"donor_rmse", predict.RMSE(y[n:], pred),
	)
	return nil
}

// embed computes the pool embedding once and, when clustering is
// enabled, labels the donor rows.
func (a *Augmenter) embed(ctx context.Context, st *runState) error {
	emb, err := a.opts.embedder.Embed(ctx, a.pool.Formulas())
	if err != nil {
		return stageError("embed", err)
	}
	if emb.Len() != a.pool.Len() || len(emb.Radii) != a.pool.Len() {
		return stageError("embed", fmt.Errorf("embedding has %d coords and %d radii for %d rows",
			emb.Len(), len(emb.Radii), a.pool.Len()))
	}
	st.emb = emb

	if a.opts.clusterer == nil || !a.cfg.Clusters {
		return nil
	}
	donors := st.part.Donors()
	coords, _, err := emb.Subset(donors)
	if err != nil {
		return stageError("cluster", err)
	}
	labels, err := a.opts.clusterer.Cluster(ctx, coords)
	if err != nil {
		return stageError("cluster", err)
	}
	if len(labels) != len(donors) {
		return stageError("cluster", fmt.Errorf("%d labels for %d donors", len(labels), len(donors)))
	}
	st.labels = make(map[int]int, len(donors))
	for i, idx := range donors {
		st.labels[idx] = labels[i]
	}
	return nil
}

// score returns the combined score of every donor against the current
// acceptor set.
func (a *Augmenter) score(st *runState, donors []int) ([]float64, error) {
	accCoords, accRadii, err := st.emb.Subset(st.part.Acceptors())
	if err != nil {
		return nil, err
	}
	donCoords, _, err := st.emb.Subset(donors)
	if err != nil {
		return nil, err
	}
	raw, err := density.Raw(accCoords, accRadii, donCoords)
	if err != nil {
		return nil, err
	}

	pred := make([]float64, len(donors))
	for i, idx := range donors {
		pred[i] = st.baseline[idx]
	}
	return a.combiner.Combine(pred, raw)
}

// snapshot appends the current acceptor table to the result and hands it
// to the sink.
func (a *Augmenter) snapshot(ctx context.Context, st *runState) error {
	t, err := a.pool.Select(st.part.Acceptors())
	if err != nil {
		return err
	}
	seq := len(st.res.Snapshots)
	st.res.Snapshots = append(st.res.Snapshots, t)

	if a.opts.sink == nil {
		return nil
	}
	err = a.opts.sink.Save(ctx, st.id, seq, t)
	st.log.LogSnapshot(ctx, seq, t.Len(), err)
	return stageError("snapshot", err)
}
