package repository

import (
	"context"

	"fileshare/internal/model"
)

// FileFilter narrows a file listing.
type FileFilter struct {
	GrantedOnly bool
}

// FileRepository defines data access for file metadata using SQL queries only.
// No business logic here, one statement per method.
type FileRepository interface {
	// Create inserts a new file record. Returns ErrDuplicate when the filename exists.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID, with the owner's username populated.
	FindByID(ctx context.Context, id int64) (*model.File, error)

	// FindByFilename returns a file by its unique filename.
	FindByFilename(ctx context.Context, filename string) (*model.File, error)

	// List returns files in insertion order with owner usernames populated.
	List(ctx context.Context, filter FileFilter) ([]model.File, error)

	// SetAccessGranted updates the access flag and returns the updated record.
	SetAccessGranted(ctx context.Context, id int64, granted bool) (*model.File, error)

	// IncrementDownloadCount atomically adds one to the counter and returns the new value.
	IncrementDownloadCount(ctx context.Context, id int64) (int64, error)

	// Delete removes a file record. Returns sql.ErrNoRows if nothing was deleted.
	Delete(ctx context.Context, id int64) error
}
