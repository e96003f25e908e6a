package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	author TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	submission_date TIMESTAMPTZ,
	review_date TIMESTAMPTZ,
	reviewed_by TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_author ON documents(author);
CREATE INDEX IF NOT EXISTS idx_documents_type_status ON documents(doc_type, status);
CREATE INDEX IF NOT EXISTS idx_documents_submission ON documents(submission_date DESC NULLS LAST);

CREATE TABLE IF NOT EXISTS document_files (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	size BIGINT NOT NULL DEFAULT 0,
	position INT NOT NULL,
	preview TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_files_document ON document_files(document_id, position);

CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS groups (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS user_groups (
	username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
	group_name TEXT NOT NULL REFERENCES groups(name) ON DELETE CASCADE,
	PRIMARY KEY (username, group_name)
);

CREATE TABLE IF NOT EXISTS group_doc_types (
	group_name TEXT NOT NULL REFERENCES groups(name) ON DELETE CASCADE,
	doc_type TEXT NOT NULL,
	PRIMARY KEY (group_name, doc_type)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
