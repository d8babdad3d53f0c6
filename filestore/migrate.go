package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/storage/api"
)

// LocalPath is where the local filestore keeps resource id:
// <root>/resources/<id[0:3]>/<id[3:6]>/<id[6:]>.
func LocalPath(root, id string) (string, error) {
	if len(id) < 7 || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: malformed resource id %q", api.ErrInvalidRef, id)
	}
	return filepath.Join(root, "resources", id[0:3], id[3:6], id[6:]), nil
}

// MigrateReport summarises a local filestore migration.
type MigrateReport struct {
	Found    int
	Matched  int
	Uploaded []string
	Skipped  []string
	Failed   map[string]error
}

// MigrateLocal copies every resource file under <root>/resources to the
// object store. The stored filename of each resource comes from the URL map;
// resources it does not know are skipped. Per-file failures are collected
// and do not stop the run.
func (p *Provider) MigrateLocal(ctx context.Context, root string) (MigrateReport, error) {
	report := MigrateReport{Failed: map[string]error{}}
	if p.urlMap == nil {
		return report, ErrNoURLMap
	}
	log := p.log.WithComponent("filestore.migrate")

	paths, err := localResources(filepath.Join(root, "resources"))
	if err != nil {
		return report, err
	}
	report.Found = len(paths)
	log.Info(ctx, "Found resource files in the file system", logapi.Int("count", report.Found))

	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		filename, err := p.lookupFilename(ctx, id)
		if err != nil {
			report.Failed[id] = err
			continue
		}
		if filename == "" {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		report.Matched++
		filename = filename[strings.LastIndex(filename, "/")+1:]

		if err := p.migrateOne(ctx, id, filename, paths[id]); err != nil {
			log.Error(ctx, "Failed to upload resource", err, logapi.String("resource_id", id))
			report.Failed[id] = err
			continue
		}
		report.Uploaded = append(report.Uploaded, id)
		log.Info(ctx, "Uploaded resource", logapi.String("resource_id", id), logapi.String("filename", filename))
	}

	log.Info(ctx, "Migration finished",
		logapi.Int("uploaded", len(report.Uploaded)),
		logapi.Int("skipped", len(report.Skipped)),
		logapi.Int("failed", len(report.Failed)))
	return report, nil
}

func (p *Provider) migrateOne(ctx context.Context, id, filename, localPath string) error {
	key, err := BuildKey(p.cfg, ResourceRef(id, filename))
	if err != nil {
		return err
	}
	src, err := OpenFile(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	return p.putSource(ctx, key, src, typeByExtension(filename))
}

// localResources maps resource ids to file paths. The id is rebuilt from the
// two directory levels and the file name.
func localResources(base string) (map[string]string, error) {
	found := map[string]string{}
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		found[parts[0]+parts[1]+parts[2]] = p
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("local storage path %s has no resources directory: %w", base, err)
	}
	return found, err
}
