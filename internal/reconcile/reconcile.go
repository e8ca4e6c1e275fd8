// Package reconcile finds drift between stored bytes and file records left
// behind by failed uploads and partial deletes.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"fileshare/internal/repository"
	"fileshare/internal/storage"
)

// DefaultMinAge is how old an unrecorded object must be before it counts as
// orphaned. An upload writes its bytes before its record.
const DefaultMinAge = 15 * time.Minute

// Options controls a reconcile run.
type Options struct {
	// Remove deletes orphaned objects. Records are never touched.
	Remove bool
	// MinAge leaves unrecorded objects modified more recently than this alone.
	MinAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Failure is an object that could not be checked or removed.
type Failure struct {
	Key string
	Err error
}

// Report describes the drift found by Run.
type Report struct {
	// OrphanedObjects are storage keys with no file record.
	OrphanedObjects []string
	// MissingObjects are record paths with no stored bytes.
	MissingObjects []string
	// Pending are unrecorded keys that may belong to an upload still in
	// flight. They are neither reported as orphaned nor removed.
	Pending []string
	// Removed lists orphaned keys deleted when removal was requested.
	Removed  []string
	Failures []Failure
}

// Clean reports whether no drift was found.
func (r *Report) Clean() bool {
	return len(r.OrphanedObjects) == 0 && len(r.MissingObjects) == 0
}

// Run compares every object under the upload prefix with every file record.
// Before an object is reported as orphaned its record is looked up again, and
// before a record is reported as missing its object is stat'ed again, so an
// upload finishing mid-run is not mistaken for drift.
func Run(ctx context.Context, store storage.Storage, files repository.FileRepository, opts Options, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	objects, err := store.List(ctx, storage.UploadPrefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	records, err := files.List(ctx, repository.FileFilter{})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	cutoff := now().Add(-opts.MinAge)

	stored := make(map[string]struct{}, len(objects))
	for _, o := range objects {
		stored[o.Key] = struct{}{}
	}
	known := make(map[string]struct{}, len(records))
	rep := &Report{}
	for _, f := range records {
		known[f.Path] = struct{}{}
		if _, ok := stored[f.Path]; ok {
			continue
		}
		_, err := store.Stat(ctx, f.Path)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrObjectNotFound):
			rep.MissingObjects = append(rep.MissingObjects, f.Path)
		default:
			rep.Failures = append(rep.Failures, Failure{Key: f.Path, Err: err})
		}
	}

	var candidates []storage.ObjectInfo
	for _, o := range objects {
		if _, ok := known[o.Key]; ok {
			continue
		}
		if o.LastModified.After(cutoff) {
			rep.Pending = append(rep.Pending, o.Key)
			continue
		}
		candidates = append(candidates, o)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Key < candidates[j].Key })

	for _, key := range rep.MissingObjects {
		logger.Warn("reconcile_missing_object", zap.String("path", key))
	}
	for _, o := range candidates {
		recorded, err := hasRecord(ctx, files, o.Key)
		if err != nil {
			logger.Error("reconcile_check_failed", zap.String("path", o.Key), zap.Error(err))
			rep.Failures = append(rep.Failures, Failure{Key: o.Key, Err: err})
			continue
		}
		if recorded {
			rep.Pending = append(rep.Pending, o.Key)
			continue
		}
		rep.OrphanedObjects = append(rep.OrphanedObjects, o.Key)
		if !opts.Remove {
			logger.Warn("reconcile_orphaned_object", zap.String("path", o.Key), zap.Time("modified", o.LastModified))
			continue
		}
		if err := store.Delete(ctx, o.Key); err != nil {
			logger.Error("reconcile_remove_failed", zap.String("path", o.Key), zap.Error(err))
			rep.Failures = append(rep.Failures, Failure{Key: o.Key, Err: err})
			continue
		}
		logger.Info("reconcile_removed", zap.String("path", o.Key))
		rep.Removed = append(rep.Removed, o.Key)
	}
	sort.Strings(rep.MissingObjects)
	sort.Strings(rep.Pending)

	logger.Info("reconcile_finished",
		zap.Int("objects", len(objects)),
		zap.Int("records", len(records)),
		zap.Int("orphaned", len(rep.OrphanedObjects)),
		zap.Int("missing", len(rep.MissingObjects)),
		zap.Int("pending", len(rep.Pending)),
		zap.Int("removed", len(rep.Removed)),
		zap.Int("failures", len(rep.Failures)),
	)
	return rep, nil
}

// hasRecord looks up the record an upload would create for key.
func hasRecord(ctx context.Context, files repository.FileRepository, key string) (bool, error) {
	f, err := files.FindByFilename(ctx, strings.TrimPrefix(key, storage.UploadPrefix))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return f.Path == key, nil
}
