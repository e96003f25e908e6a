package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

const documentColumns = `id, author, doc_type, title, description, status,
	submission_date, review_date, reviewed_by, comment, created_at, updated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.Author, doc.DocType, doc.Title, doc.Description, string(doc.Status),
		doc.SubmissionDate, doc.ReviewDate, doc.ReviewedBy, doc.Comment, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	files, err := listFiles(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	doc.Files = files
	return doc, nil
}

func (r *DocumentRepository) ListByAuthor(ctx context.Context, author string, status *domain.Status) ([]domain.Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE author = $1`
	args := []any{author}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY submission_date DESC NULLS LAST, created_at DESC`

	return r.queryDocuments(ctx, query, args...)
}

func (r *DocumentRepository) ListByTypes(ctx context.Context, docTypes []string, status *domain.Status) ([]domain.Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE doc_type = ANY($1)`
	args := []any{docTypes}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY submission_date DESC NULLS LAST, created_at DESC`

	return r.queryDocuments(ctx, query, args...)
}

// ApplyTransition performs the conditional status update and any attachment
// inserts in one transaction. The WHERE clause on the expected source states
// is what serializes concurrent actors: the loser updates zero rows.
func (r *DocumentRepository) ApplyTransition(ctx context.Context, t domain.Transition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	sets := []string{"status = $2", "updated_at = $3"}
	args := []any{t.DocumentID, string(t.To), now}
	next := 4

	if t.UpdateContent {
		sets = append(sets,
			fmt.Sprintf("title = $%d", next),
			fmt.Sprintf("description = $%d", next+1),
			fmt.Sprintf("doc_type = $%d", next+2),
		)
		args = append(args, t.Title, t.Description, t.DocType)
		next += 3
	}
	if t.SetSubmissionDate {
		sets = append(sets, fmt.Sprintf("submission_date = $%d", next))
		args = append(args, now)
		next++
	}
	if t.SetReviewDate {
		sets = append(sets,
			fmt.Sprintf("review_date = $%d", next),
			fmt.Sprintf("reviewed_by = $%d", next+1),
		)
		args = append(args, now, t.ReviewedBy)
		next += 2
	}
	if t.Comment != nil {
		sets = append(sets, fmt.Sprintf("comment = $%d", next))
		args = append(args, *t.Comment)
		next++
	}

	from := make([]string, len(t.From))
	for i, status := range t.From {
		from[i] = string(status)
	}
	query := fmt.Sprintf(`UPDATE documents SET %s WHERE id = $1 AND status = ANY($%d)`,
		strings.Join(sets, ", "), next)
	args = append(args, from)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1`, t.DocumentID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrNotFound, "apply transition", fmt.Errorf("document %s", t.DocumentID))
		}
		if err != nil {
			return fmt.Errorf("inspect transition conflict: %w", err)
		}
		return domain.WrapError(domain.ErrInvalidState, "apply transition",
			fmt.Errorf("document %s is %s, expected one of %s", t.DocumentID, current, strings.Join(from, "/")))
	}

	for _, file := range t.NewFiles {
		if err := insertFile(ctx, tx, file); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition tx: %w", err)
	}
	return nil
}

// Delete removes a non-approved document and its attachment rows, returning
// the storage keys of the removed attachments for blob cleanup.
func (r *DocumentRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("document %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("lock document for delete: %w", err)
	}
	if domain.Status(status) == domain.StatusApproved {
		return nil, domain.WrapError(domain.ErrInvalidState, "delete document",
			fmt.Errorf("document %s is approved and immutable", id))
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM document_files WHERE document_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list attachment keys: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attachment key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachment keys: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete tx: %w", err)
	}
	return keys, nil
}

func (r *DocumentRepository) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var submission, review sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Author, &doc.DocType, &doc.Title, &doc.Description, &status,
		&submission, &review, &doc.ReviewedBy, &doc.Comment, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.Status(status)
	if submission.Valid {
		ts := submission.Time
		doc.SubmissionDate = &ts
	}
	if review.Valid {
		ts := review.Time
		doc.ReviewDate = &ts
	}
	return &doc, nil
}
