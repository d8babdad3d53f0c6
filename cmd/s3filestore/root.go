package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bignyap/s3filestore/filestore"
	logapi "github.com/bignyap/s3filestore/logger/api"
	logconfig "github.com/bignyap/s3filestore/logger/config"
	logfactory "github.com/bignyap/s3filestore/logger/factory"
	"github.com/bignyap/s3filestore/storage/config"
	"github.com/bignyap/s3filestore/storage/factory"
	"github.com/bignyap/s3filestore/urlmap"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const serviceName = "s3filestore"

// app carries what every subcommand loads before it runs.
type app struct {
	envFile string
	log     logapi.Logger
	storage config.StorageConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Object storage backend for CKAN-style resource files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCmd(a),
		newCheckConfigCmd(a),
		newMigrateLocalCmd(a),
	)

	return cmd
}

// load reads the dotenv file, then the logger and storage configuration.
// A missing dotenv file is not an error.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	logCfg, err := logconfig.LoadLogConfig()
	if err != nil {
		return err
	}
	log, err := logfactory.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logfactory.SetGlobalLogger(log)
	a.log = log

	a.storage, err = config.LoadStorageConfig()
	return err
}

// provider builds the object store, the optional URL map and the filestore
// provider around them. The returned close func releases the URL map.
func (a *app) provider(ctx context.Context, opts ...factory.Option) (*filestore.Provider, func(), error) {
	if err := a.storage.Validate(); err != nil {
		return nil, nil, err
	}
	store, err := factory.NewObjectStore(a.storage, a.log, opts...)
	if err != nil {
		return nil, nil, err
	}

	urls, err := urlmap.Open(ctx, os.Getenv("S3FILESTORE_URLMAP_BACKEND"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open url map: %w", err)
	}

	var providerOpts []filestore.Option
	closeFn := func() {}
	if urls != nil {
		providerOpts = append(providerOpts, filestore.WithURLMap(urls))
		closeFn = func() {
			if err := urls.Close(); err != nil {
				a.log.Error(context.Background(), "Failed to close url map", err)
			}
		}
	}
	return filestore.NewProvider(a.storage, store, a.log, providerOpts...), closeFn, nil
}
