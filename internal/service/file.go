package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"fileshare/internal/model"
	"fileshare/internal/policy"
	"fileshare/internal/repository"
	"fileshare/internal/storage"
)

const defaultContentType = "application/octet-stream"

// UploadInput describes a file to store. Size is -1 when unknown.
type UploadInput struct {
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Download is an authorized, counted download. The caller must close Body.
type Download struct {
	File *model.File
	Body io.ReadCloser
}

// FileService defines the file lifecycle use cases. Every method authorizes
// actor (nil for anonymous) before touching persistence.
type FileService interface {
	// Upload stores the bytes, then the metadata. A filename that already
	// exists is rejected with ErrConflict.
	Upload(ctx context.Context, actor *model.User, in UploadInput) (*model.File, error)

	// List returns the files visible in scope, ordered by ID.
	List(ctx context.Context, actor *model.User, scope policy.Scope) ([]model.FileSummary, error)

	// SetAccessGrant sets whether non-admins may download the file.
	SetAccessGrant(ctx context.Context, actor *model.User, id int64, granted bool) (*model.File, error)

	// Download opens the file's bytes and commits the download counter
	// before returning.
	Download(ctx context.Context, actor *model.User, id int64) (*Download, error)

	// Delete removes the record, then the bytes.
	Delete(ctx context.Context, actor *model.User, id int64) error
}

type fileService struct {
	store  storage.Storage
	repo   repository.FileRepository
	logger *zap.Logger
}

// NewFileService returns a FileService that keeps bytes in store and records in repo.
func NewFileService(store storage.Storage, repo repository.FileRepository, logger *zap.Logger) FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fileService{store: store, repo: repo, logger: logger}
}

func (s *fileService) Upload(ctx context.Context, actor *model.User, in UploadInput) (*model.File, error) {
	if err := policy.Authorize(actor, policy.OpUpload, nil); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, ErrBodyRequired
	}
	if err := ValidateFilename(in.Filename); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByFilename(ctx, in.Filename)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return nil, &PersistenceError{Op: "check filename", Err: err}
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	key := storage.KeyForFilename(in.Filename)

	obj, err := s.store.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
	})
	if err != nil {
		// Another upload of the same name got its bytes in first.
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, ErrConflict
		}
		return nil, &PersistenceError{Op: "store bytes", Err: err}
	}

	stored, err := s.repo.Create(ctx, &model.File{
		Filename:    in.Filename,
		Path:        key,
		Size:        obj.Size,
		ContentType: contentType,
		OwnerID:     &actor.ID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error("orphaned_bytes",
				zap.String("path", key),
				zap.NamedError("insert_error", err),
				zap.NamedError("cleanup_error", delErr),
			)
			if errors.Is(err, repository.ErrDuplicate) {
				err = ErrConflict
			}
			return nil, &OrphanedBytesError{Path: key, Err: err, CleanupErr: delErr}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, &PersistenceError{Op: "save metadata", Err: err}
	}

	stored.OwnerName = actor.Username
	s.logger.Info("file_uploaded",
		zap.Int64("file_id", stored.ID),
		zap.String("filename", stored.Filename),
		zap.Int64("size", stored.Size),
		zap.String("actor", actor.Username),
	)
	return stored, nil
}

func (s *fileService) List(ctx context.Context, actor *model.User, scope policy.Scope) ([]model.FileSummary, error) {
	if err := policy.Authorize(actor, scope.Operation(), nil); err != nil {
		return nil, err
	}

	files, err := s.repo.List(ctx, repository.FileFilter{GrantedOnly: scope != policy.ScopeAll})
	if err != nil {
		return nil, &PersistenceError{Op: "list files", Err: err}
	}

	out := make([]model.FileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, f.Summary())
	}
	return out, nil
}

func (s *fileService) SetAccessGrant(ctx context.Context, actor *model.User, id int64, granted bool) (*model.File, error) {
	if err := policy.Authorize(actor, policy.OpUpdateAccess, nil); err != nil {
		return nil, err
	}

	f, err := s.repo.SetAccessGranted(ctx, id, granted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "update access", Err: err}
	}

	s.logger.Info("file_access_updated",
		zap.Int64("file_id", id),
		zap.Bool("access_granted", granted),
		zap.String("actor", actor.Username),
	)
	return f, nil
}

func (s *fileService) Download(ctx context.Context, actor *model.User, id int64) (*Download, error) {
	if actor == nil {
		return nil, policy.Authorize(nil, policy.OpDownload, nil)
	}

	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "find file", Err: err}
	}
	if err := policy.Authorize(actor, policy.OpDownload, f); err != nil {
		return nil, err
	}

	body, _, err := s.store.Get(ctx, f.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error("content_missing", zap.Int64("file_id", f.ID), zap.String("path", f.Path))
			return nil, ErrContentMissing
		}
		return nil, &PersistenceError{Op: "open bytes", Err: err}
	}

	n, err := s.repo.IncrementDownloadCount(ctx, f.ID)
	if err != nil {
		body.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "increment download count", Err: err}
	}
	f.DownloadCount = n

	return &Download{File: f, Body: body}, nil
}

func (s *fileService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := policy.Authorize(actor, policy.OpDelete, nil); err != nil {
		return err
	}

	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "find file", Err: err}
	}

	// Record first: a dangling record would be served as a broken download,
	// orphaned bytes are invisible until reconciled.
	if err := s.repo.Delete(ctx, f.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "delete record", Err: err}
	}

	if err := s.store.Delete(ctx, f.Path); err != nil {
		s.logger.Error("partial_delete",
			zap.Int64("file_id", f.ID),
			zap.String("path", f.Path),
			zap.Error(err),
		)
		return &PartialDeleteError{FileID: f.ID, Path: f.Path, Err: err}
	}

	s.logger.Info("file_deleted",
		zap.Int64("file_id", f.ID),
		zap.String("filename", f.Filename),
		zap.String("actor", actor.Username),
	)
	return nil
}
