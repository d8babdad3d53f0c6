package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
)

// StoreOpener builds an object store from configuration.
type StoreOpener func(cfg config.StorageConfig) (api.ObjectStore, error)

// CheckConfig verifies that every required key is set, then that the bucket
// is reachable or can be created. Progress is written to out. A non-nil
// error means the process must not serve traffic.
func CheckConfig(ctx context.Context, cfg config.StorageConfig, open StoreOpener, out io.Writer) error {
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		for _, key := range missing {
			fmt.Fprintf(out, "You must set the %q option\n", key)
		}
		return &config.MissingKeysError{Keys: missing}
	}
	fmt.Fprintln(out, "All configuration options defined")

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Invalid configuration: %v\n", err)
		return err
	}

	store, err := open(cfg)
	if err != nil {
		fmt.Fprintf(out, "An error was found while creating the object store client: %v\n", err)
		return err
	}

	if _, err := store.EnsureBucket(ctx, cfg.BucketName); err != nil {
		switch {
		case errors.Is(err, api.ErrAccessDenied):
			fmt.Fprintf(out, "Access to bucket %s denied: %v\n", cfg.BucketName, err)
		default:
			fmt.Fprintf(out, "An error was found while finding or creating the bucket: %v\n", err)
		}
		return err
	}

	fmt.Fprintln(out, "Configuration OK!")
	return nil
}
