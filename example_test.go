package matdisco_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/snapshot"
)

func rows(formulas ...string) []dataset.Row {
	out := make([]dataset.Row, len(formulas))
	for i, f := range formulas {
		out[i] = dataset.Row{Formula: f, Target: float64(i + 1)}
	}
	return out
}

// Example demonstrates a threshold run with the built-in predictor and
// embedding, persisting every snapshot to an in-memory blob store.
func Example() {
	datasets := dataset.Collection{
		"train":      dataset.New("train", nil, rows("NaCl", "KCl", "LiF", "NaF")),
		"candidates": dataset.New("candidates", nil, rows("CsCl", "RbBr", "Fe2O3", "Al2O3", "SiO2", "MgO")),
	}

	cfg := matdisco.DefaultConfig()
	cfg.Acceptor, cfg.Donor = "train", "candidates"
	cfg.Threshold = 0
	cfg.BatchSize = 2
	cfg.Iterations = 2

	store := blobstore.NewMemoryStore()
	aug, err := matdisco.New(datasets, cfg,
		matdisco.WithRunID("example"),
		matdisco.WithSnapshotSink(snapshot.NewSink(store)),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := aug.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.StopReason, len(res.Admitted), res.Final().Len())

	names, _ := snapshot.List(context.Background(), store, "example")
	fmt.Println(names)

	// Output:
	// exhausted budget 4 8
	// [runs/example/snapshot-0000.csv runs/example/snapshot-0001.csv runs/example/snapshot-0002.csv]
}
