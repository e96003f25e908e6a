package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

// DirectoryRepository reads the user/group/doc-type mapping tables. The
// mapping is consulted on every authorization decision so that group edits
// take effect immediately.
type DirectoryRepository struct {
	db *sql.DB
}

func NewDirectoryRepository(db *sql.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GroupsOf(ctx context.Context, username string) ([]domain.Group, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrNotFound, "groups of", fmt.Errorf("user %s", username))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT ug.group_name, t.doc_type
FROM user_groups ug
LEFT JOIN group_doc_types t ON t.group_name = ug.group_name
WHERE ug.username = $1
ORDER BY ug.group_name, t.doc_type
`, username)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	index := map[string]int{}
	for rows.Next() {
		var name string
		var docType sql.NullString
		if err := rows.Scan(&name, &docType); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		i, ok := index[name]
		if !ok {
			groups = append(groups, domain.Group{Name: name})
			i = len(groups) - 1
			index[name] = i
		}
		if docType.Valid {
			groups[i].ApprovableTypes = append(groups[i].ApprovableTypes, docType.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return groups, nil
}
