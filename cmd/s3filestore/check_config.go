package main

import (
	"github.com/bignyap/s3filestore/filestore"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/bignyap/s3filestore/storage/factory"
	"github.com/spf13/cobra"
)

func newCheckConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Verify the storage settings and that the bucket is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			open := func(cfg config.StorageConfig) (api.ObjectStore, error) {
				return factory.NewObjectStore(cfg, a.log)
			}
			return filestore.CheckConfig(cmd.Context(), a.storage, open, cmd.OutOrStdout())
		},
	}
}
