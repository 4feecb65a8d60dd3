package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/server"
	"github.com/hupe1980/matdisco/snapshot"
)

func newServeCmd(rf *rootFlags) *cobra.Command {
	var (
		addr      string
		out       string
		maxRuns   int
		cacheSize int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve augmentation runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := rf.logger()
			if err != nil {
				return err
			}
			if rf.logLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			opts := []server.Option{
				server.WithLogger(logger),
				server.WithMaxRuns(maxRuns),
			}
			if out != "" {
				store, err := openStore(cmd.Context(), out)
				if err != nil {
					return err
				}
				// Snapshots are write-once, so reads of evicted runs can be cached.
				cached, err := blobstore.NewCachingStore(store, cacheSize)
				if err != nil {
					return err
				}
				opts = append(opts, server.WithSnapshotSink(snapshot.NewSink(cached)))
			}

			srv, err := server.NewServer(opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&out, "out", "", "snapshot location: dir, s3://bucket/prefix or minio://host/bucket/prefix")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 128, "runs kept in memory")
	cmd.Flags().IntVar(&cacheSize, "snapshot-cache", 256, "snapshot blobs cached in memory")
	return cmd
}
