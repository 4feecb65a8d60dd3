// Package matdisco runs a materials-discovery augmentation loop.
//
// Given an acceptor dataset of labeled compositions and a donor dataset
// of candidates, an Augmenter repeatedly moves the donors that look both
// valuable and novel into the acceptor set, simulating an active-learning
// campaign.
//
// # Scoring
//
// A predictor is trained once on the acceptor rows and predicts every
// donor. The whole pool is embedded once on a 2-D plane with a density
// radius per row. Each iteration scores the remaining donors by
//
//	rescale(w_pred · rescale(prediction) + w_proxy · rescale(-density))
//
// where density is the sum of isotropic Gaussians centred on the current
// acceptors. Donors far from every acceptor therefore rank high.
//
// # Quick Start
//
//	datasets := dataset.Collection{"train": train, "candidates": cands}
//	cfg := matdisco.DefaultConfig()
//	cfg.Acceptor, cfg.Donor = "train", "candidates"
//	cfg.Threshold = 0.8
//
//	aug, _ := matdisco.New(datasets, cfg, matdisco.WithLogger(matdisco.NewTextLogger(slog.LevelInfo)))
//	res, _ := aug.Run(ctx)
//	fmt.Println(res.StopReason, len(res.Admitted), res.Final().Len())
//
// # Snapshots
//
// Result.Snapshots starts with the initial acceptor table and gains one
// table per iteration that moved rows. When no donor qualifies the run
// appends one unmodified snapshot and stops. Use WithSnapshotSink and
// package snapshot to persist snapshots to a blobstore as they are taken.
//
// # Collaborators
//
// The predictor, embedder and clusterer are interfaces (predict.Predictor,
// embedding.Provider, cluster.Clusterer) and can be replaced with
// WithPredictor, WithEmbedder and WithClusterer.
package matdisco
