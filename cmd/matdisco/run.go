package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/codec"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/settings"
	"github.com/hupe1980/matdisco/snapshot"
)

type runFlags struct {
	config      string
	property    string
	acceptor    string
	donor       string
	data        []string
	out         string
	repetitions int
	format      string
	compression string
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the augmentation workflow for one property",
		Example: `  matdisco run --config settings.yaml --property bandgap \
    --data zhuo=data/zhuo.csv --data mpds=data/mpds.csv --out runs/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflow(cmd, rf, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "settings YAML file")
	fl.StringVar(&f.property, "property", "", "property whose dataset pair to use")
	fl.StringVar(&f.acceptor, "acceptor", "", "acceptor dataset name (overrides the pair)")
	fl.StringVar(&f.donor, "donor", "", "donor dataset name (overrides the pair)")
	fl.StringArrayVar(&f.data, "data", nil, "dataset as name=path.csv (repeatable)")
	fl.StringVar(&f.out, "out", "", "snapshot location: dir, s3://bucket/prefix or minio://host/bucket/prefix")
	fl.IntVar(&f.repetitions, "repetitions", 0, "number of repetitions (default from settings)")
	fl.StringVar(&f.format, "format", "", "snapshot format: csv or json (default from settings)")
	fl.StringVar(&f.compression, "compression", "", "snapshot compression: none, zstd or lz4 (default from settings)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runWorkflow(cmd *cobra.Command, rf *rootFlags, f *runFlags) error {
	ctx := cmd.Context()

	logger, err := rf.logger()
	if err != nil {
		return err
	}

	s := settings.Default()
	if f.config != "" {
		if s, err = settings.Load(f.config); err != nil {
			return err
		}
	} else if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if f.repetitions > 0 {
		s.Repetitions = f.repetitions
	}

	cfg, err := resolveConfig(s, f)
	if err != nil {
		return err
	}

	datasets, err := loadDatasets(f.data)
	if err != nil {
		return err
	}

	var sink *snapshot.Sink
	if f.out != "" {
		if sink, err = newSink(cmd, s.Snapshots, f); err != nil {
			return err
		}
	}

	metrics := &matdisco.BasicMetricsCollector{}
	for i := 0; i < s.Repetitions; i++ {
		rep := cfg
		rep.RandomState = cfg.RandomState + int64(i)

		opts := []matdisco.Option{
			matdisco.WithLogger(logger),
			matdisco.WithMetricsCollector(metrics),
		}
		if sink != nil {
			opts = append(opts, matdisco.WithSnapshotSink(sink))
		}

		aug, err := matdisco.New(datasets, rep, opts...)
		if err != nil {
			return err
		}
		res, err := aug.Run(ctx)
		if err != nil {
			return fmt.Errorf("repetition %d: %w", i, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "repetition %d: run %s stopped (%s) after %d iterations, %d admitted, %d acceptor rows\n",
			i, res.RunID, res.StopReason, res.Iterations, len(res.Admitted), res.Final().Len())
	}

	stats := metrics.GetStats()
	logger.InfoContext(ctx, "study completed",
		"repetitions", stats.RunCount,
		"rows_moved", stats.RowsMoved,
		"avg_run_ms", stats.RunAvgNanos/1e6,
	)
	return nil
}

// resolveConfig picks the dataset pair from the property, or from the
// --acceptor/--donor flags.
func resolveConfig(s settings.Settings, f *runFlags) (matdisco.Config, error) {
	property := f.property
	if property == "" && len(s.Pairs) == 1 {
		property = s.Properties()[0]
	}

	if property == "" {
		// Without a pair, the flags name the datasets directly.
		if s.Pairs == nil {
			s.Pairs = map[string][]string{}
		}
		property = "default"
		s.Pairs[property] = []string{f.acceptor, f.donor}
	} else if f.acceptor != "" || f.donor != "" {
		if pair, ok := s.Pairs[property]; ok {
			acc, don := pair[0], pair[1]
			if f.acceptor != "" {
				acc = f.acceptor
			}
			if f.donor != "" {
				don = f.donor
			}
			s.Pairs[property] = []string{acc, don}
		}
	}
	return s.Config(property)
}

func loadDatasets(specs []string) (dataset.Collection, error) {
	datasets := make(dataset.Collection, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --data %q: want name=path.csv", spec)
		}
		t, err := dataset.ReadCSVFile(path, name)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		datasets[name] = t
	}
	return datasets, nil
}

func newSink(cmd *cobra.Command, cfg settings.Snapshots, f *runFlags) (*snapshot.Sink, error) {
	formatName, compressionName := cfg.Format, cfg.Compression
	if f.format != "" {
		formatName = f.format
	}
	if f.compression != "" {
		compressionName = f.compression
	}

	format, err := snapshot.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	compression, err := snapshot.ParseCompression(compressionName)
	if err != nil {
		return nil, err
	}
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cmd.Context(), f.out)
	if err != nil {
		return nil, err
	}
	return snapshot.NewSink(store,
		snapshot.WithFormat(format),
		snapshot.WithCompression(compression),
		snapshot.WithCodec(c),
		snapshot.WithIOLimit(cfg.IOLimit),
	), nil
}
