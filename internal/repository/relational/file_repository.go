package relational

import (
	"context"
	"database/sql"

	"fileshare/internal/model"
	"fileshare/internal/repository"
)

// FileRepository is a database/sql implementation of repository.FileRepository.
// It uses parameterized queries and contains no business logic.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

var _ repository.FileRepository = (*FileRepository)(nil)

const fileColumns = `id, filename, path, size, content_type, download_count, access_granted, owner_id, created_at`

const fileWithOwnerSelect = `
	SELECT f.id, f.filename, f.path, f.size, f.content_type, f.download_count,
	       f.access_granted, f.owner_id, f.created_at, COALESCE(u.username, '')
	FROM files f
	LEFT JOIN users u ON u.id = f.owner_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new file row and returns the stored record.
func (r *FileRepository) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (filename, path, size, content_type, access_granted, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.Filename,
		f.Path,
		f.Size,
		f.ContentType,
		f.AccessGranted,
		nullableID(f.OwnerID),
		f.CreatedAt,
	)
	out, err := scanFile(row, false)
	if err != nil {
		return nil, translateInsertErr(err)
	}
	return out, nil
}

// FindByID fetches a single file by its ID.
func (r *FileRepository) FindByID(ctx context.Context, id int64) (*model.File, error) {
	const q = fileWithOwnerSelect + ` WHERE f.id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id), true)
}

// FindByFilename fetches a single file by its unique filename.
func (r *FileRepository) FindByFilename(ctx context.Context, filename string) (*model.File, error) {
	const q = fileWithOwnerSelect + ` WHERE f.filename = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, filename), true)
}

// List returns files ordered by ID, optionally restricted to granted files.
func (r *FileRepository) List(ctx context.Context, filter repository.FileFilter) ([]model.File, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter.GrantedOnly {
		const q = fileWithOwnerSelect + ` WHERE f.access_granted = $1 ORDER BY f.id ASC`
		rows, err = r.db.QueryContext(ctx, q, true)
	} else {
		const q = fileWithOwnerSelect + ` ORDER BY f.id ASC`
		rows, err = r.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows, true)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetAccessGranted updates the access flag and returns the updated row.
func (r *FileRepository) SetAccessGranted(ctx context.Context, id int64, granted bool) (*model.File, error) {
	const q = `
		UPDATE files SET access_granted = $1
		WHERE id = $2
		RETURNING ` + fileColumns
	return scanFile(r.db.QueryRowContext(ctx, q, granted, id), false)
}

// IncrementDownloadCount adds one to the counter in a single statement.
func (r *FileRepository) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	const q = `
		UPDATE files SET download_count = download_count + 1
		WHERE id = $1
		RETURNING download_count`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a file row. Returns sql.ErrNoRows when no row matched.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanFile(row rowScanner, withOwner bool) (*model.File, error) {
	var (
		f     model.File
		owner sql.NullInt64
	)
	dest := []any{
		&f.ID,
		&f.Filename,
		&f.Path,
		&f.Size,
		&f.ContentType,
		&f.DownloadCount,
		&f.AccessGranted,
		&owner,
		&f.CreatedAt,
	}
	if withOwner {
		dest = append(dest, &f.OwnerName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.Int64
		f.OwnerID = &id
	}
	return &f, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
