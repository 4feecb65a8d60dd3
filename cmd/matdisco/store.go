package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/blobstore/minio"
	"github.com/hupe1980/matdisco/blobstore/s3"
)

// openStore resolves an output location:
//
//	dir                              local directory
//	memory://                        in-process store (testing)
//	s3://bucket/prefix               AWS S3 with the default credential chain
//	minio://host:port/bucket/prefix  MinIO, credentials from MINIO_ACCESS_KEY
//	                                 and MINIO_SECRET_KEY
func openStore(ctx context.Context, out string) (blobstore.BlobStore, error) {
	if !strings.Contains(out, "://") {
		return blobstore.NewLocalStore(out), nil
	}

	u, err := url.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("invalid output location %q: %w", out, err)
	}
	prefix := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid output location %q: missing bucket", out)
		}
		var opts []s3.Option
		if prefix != "" {
			opts = append(opts, s3.WithPrefix(prefix))
		}
		if region := os.Getenv("AWS_REGION"); region != "" {
			opts = append(opts, s3.WithRegion(region))
		}
		if endpoint := os.Getenv("MATDISCO_S3_ENDPOINT"); endpoint != "" {
			opts = append(opts, s3.WithEndpoint(endpoint))
		}
		return s3.New(ctx, u.Host, opts...)
	case "minio":
		bucket, rest, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("invalid output location %q: want minio://host/bucket[/prefix]", out)
		}
		secure, _ := strconv.ParseBool(os.Getenv("MINIO_SECURE"))
		return minio.Dial(ctx, minio.Config{
			Endpoint:     u.Host,
			AccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:    os.Getenv("MINIO_SECRET_KEY"),
			Secure:       secure,
			Region:       os.Getenv("MINIO_REGION"),
			Bucket:       bucket,
			Prefix:       rest,
			CreateBucket: true,
		})
	default:
		return nil, fmt.Errorf("unsupported output scheme %q", u.Scheme)
	}
}
