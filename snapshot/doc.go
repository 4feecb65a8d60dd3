// Package snapshot persists the acceptor snapshots of an augmentation run
// to a blobstore.BlobStore.
//
// Blobs are named
//
//	runs/<run-id>/snapshot-<nnnn>.<csv|json>[.zst|.lz4]
//
// so one run's snapshots list in order. The extension records format and
// compression, which lets Load read snapshots written with any settings.
//
//	store := blobstore.NewLocalStore("out")
//	sink := snapshot.NewSink(store, snapshot.WithCompression(snapshot.CompressionZSTD))
//	aug, _ := matdisco.New(datasets, cfg, matdisco.WithSnapshotSink(sink))
package snapshot
