// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("matdisco/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	sink := snapshot.NewSink(store)
//	aug, err := matdisco.New(datasets, cfg, matdisco.WithSnapshotSink(sink))
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
