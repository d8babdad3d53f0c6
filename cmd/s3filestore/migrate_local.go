package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newMigrateLocalCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "migrate-local",
		Short: "Upload resource files from a local filestore to the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if root == "" {
				root = a.storage.LocalStoragePath
			}

			files, closeFiles, err := a.provider(ctx)
			if err != nil {
				return err
			}
			defer closeFiles()

			if _, err := files.Store().EnsureBucket(ctx, a.storage.BucketName); err != nil {
				return err
			}

			report, err := files.MigrateLocal(ctx, root)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d resource files in %s\n", report.Found, root)
			fmt.Fprintf(out, "%d matched a stored filename, %d uploaded, %d skipped, %d failed\n",
				report.Matched, len(report.Uploaded), len(report.Skipped), len(report.Failed))

			failed := make([]string, 0, len(report.Failed))
			for id := range report.Failed {
				failed = append(failed, id)
			}
			sort.Strings(failed)
			for _, id := range failed {
				fmt.Fprintf(out, "  %s: %v\n", id, report.Failed[id])
			}

			if err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d resources failed to migrate", len(report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "local storage path (defaults to S3FILESTORE_LOCAL_STORAGE_PATH)")
	return cmd
}
