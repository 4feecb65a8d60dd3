package matdisco

import (
	"github.com/hupe1980/matdisco/cluster"
	"github.com/hupe1980/matdisco/embedding"
	"github.com/hupe1980/matdisco/internal/resource"
	"github.com/hupe1980/matdisco/predict"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	predictor        predict.Predictor
	embedder         embedding.Provider
	clusterer        cluster.Clusterer
	sink             SnapshotSink
	runID            string
	resources        resource.Config
}

// Option configures an Augmenter.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example:
//
//	aug, _ := matdisco.New(datasets, cfg, matdisco.WithLogger(matdisco.NewJSONLogger(slog.LevelDebug)))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &matdisco.BasicMetricsCollector{}
//	aug, _ := matdisco.New(datasets, cfg, matdisco.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithPredictor replaces the predictor selected by Config.Model.
func WithPredictor(p predict.Predictor) Option {
	return func(o *options) {
		o.predictor = p
	}
}

// WithEmbedder replaces the built-in MDS embedding provider.
func WithEmbedder(e embedding.Provider) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithClusterer replaces the k-means clusterer used when Config.Clusters
// is set.
func WithClusterer(c cluster.Clusterer) Option {
	return func(o *options) {
		o.clusterer = c
	}
}

// WithSnapshotSink persists every snapshot as it is taken.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithRunID fixes the run id instead of generating a random UUID.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithResourceLimits bounds the built-in embedder: maxWorkers caps the
// distance matrix fan-out and memoryLimitBytes the matrix allocation.
// Zero keeps the defaults (GOMAXPROCS workers, no memory limit).
func WithResourceLimits(maxWorkers int, memoryLimitBytes int64) Option {
	return func(o *options) {
		o.resources.MaxWorkers = int64(maxWorkers)
		o.resources.MemoryLimitBytes = memoryLimitBytes
	}
}
