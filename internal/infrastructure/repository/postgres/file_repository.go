package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

const fileColumns = `id, document_id, name, content_type, size, position, preview, uploaded_at`

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Attach inserts the attachment row only when the parent document exists and
// is not approved. Position is assigned inside the statement so concurrent
// attaches to the same document never collide on ordering.
func (r *FileRepository) Attach(ctx context.Context, file *domain.File) error {
	result, err := r.db.ExecContext(ctx, `
INSERT INTO document_files (id, document_id, name, content_type, size, position, preview, uploaded_at)
SELECT $1, $2, $3, $4, $5,
	(SELECT COALESCE(MAX(position), 0) + 1 FROM document_files WHERE document_id = $2),
	$6, $7
WHERE EXISTS (SELECT 1 FROM documents WHERE id = $2 AND status <> $8)
`,
		file.ID, file.DocumentID, file.Name, file.ContentType, file.Size,
		file.Preview, file.UploadedAt, string(domain.StatusApproved),
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrValidation, "attach file",
			fmt.Errorf("document %s is missing or approved", file.DocumentID))
	}
	return nil
}

func (r *FileRepository) Remove(ctx context.Context, fileID string) (*domain.File, error) {
	row := r.db.QueryRowContext(ctx, `
DELETE FROM document_files f
USING documents d
WHERE f.id = $1 AND d.id = f.document_id AND d.status <> $2
RETURNING f.id, f.document_id, f.name, f.content_type, f.size, f.position, f.preview, f.uploaded_at
`, fileID, string(domain.StatusApproved))

	file, err := scanFile(row)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete attachment: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_files WHERE id = $1)`, fileID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("inspect remove conflict: %w", err)
	}
	if exists {
		return nil, domain.WrapError(domain.ErrInvalidState, "remove file",
			fmt.Errorf("attachment %s belongs to an approved document", fileID))
	}
	return nil, domain.WrapError(domain.ErrNotFound, "remove file", fmt.Errorf("attachment %s", fileID))
}

func (r *FileRepository) GetByID(ctx context.Context, fileID string) (*domain.File, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fileColumns+`
FROM document_files
WHERE id = $1
`, fileID)

	file, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get file", fmt.Errorf("attachment %s", fileID))
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	return file, nil
}

func (r *FileRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.File, error) {
	return listFiles(ctx, r.db, documentID)
}

func (r *FileRepository) SetPreview(ctx context.Context, fileID, preview string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_files SET preview = $2 WHERE id = $1`, fileID, preview)
	if err != nil {
		return fmt.Errorf("update preview: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("preview rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "set preview", fmt.Errorf("attachment %s", fileID))
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func listFiles(ctx context.Context, q querier, documentID string) ([]domain.File, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+fileColumns+`
FROM document_files
WHERE document_id = $1
ORDER BY position
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return files, nil
}

func insertFile(ctx context.Context, e execer, file domain.File) error {
	_, err := e.ExecContext(ctx, `
INSERT INTO document_files (id, document_id, name, content_type, size, position, preview, uploaded_at)
VALUES ($1, $2, $3, $4, $5,
	(SELECT COALESCE(MAX(position), 0) + 1 FROM document_files WHERE document_id = $2),
	$6, $7)
`,
		file.ID, file.DocumentID, file.Name, file.ContentType, file.Size,
		file.Preview, file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func scanFile(row rowScanner) (*domain.File, error) {
	var file domain.File
	err := row.Scan(
		&file.ID, &file.DocumentID, &file.Name, &file.ContentType,
		&file.Size, &file.Position, &file.Preview, &file.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
