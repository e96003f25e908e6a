package ports

import (
	"context"
	"io"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

// DocumentRepository persists document state. ApplyTransition performs the
// conditional status update (and file inserts) atomically; Delete reports the
// storage keys of cascaded files so the caller can purge blobs.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByAuthor(ctx context.Context, author string, status *domain.Status) ([]domain.Document, error)
	ListByTypes(ctx context.Context, docTypes []string, status *domain.Status) ([]domain.Document, error)
	ApplyTransition(ctx context.Context, t domain.Transition) error
	Delete(ctx context.Context, id string) ([]string, error)
}

// FileRepository persists attachment metadata. Attach and Remove enforce the
// owning document's non-approved state at the SQL level.
type FileRepository interface {
	Attach(ctx context.Context, file *domain.File) error
	Remove(ctx context.Context, fileID string) (*domain.File, error)
	GetByID(ctx context.Context, fileID string) (*domain.File, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.File, error)
	SetPreview(ctx context.Context, fileID, preview string) error
}

// ObjectStorage stores attachment content keyed by file ID. Save reports the
// number of bytes written.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// GroupDirectory is the read-only view of the external user/group directory.
// GroupsOf returns domain.ErrNotFound for unknown users.
type GroupDirectory interface {
	GroupsOf(ctx context.Context, username string) ([]domain.Group, error)
}

// MessageQueue publishes and consumes lifecycle events.
type MessageQueue interface {
	PublishDocumentEvent(ctx context.Context, event domain.DocumentEvent) error
	SubscribeDocumentEvents(ctx context.Context, handler func(context.Context, domain.DocumentEvent) error) error
}

// FilePreviewer extracts a short plain-text preview from a stored attachment.
type FilePreviewer interface {
	Preview(ctx context.Context, file domain.File) (string, error)
}

// StatisticsRepository aggregates document counts for reporting.
type StatisticsRepository interface {
	CountByStatus(ctx context.Context, period domain.StatisticsPeriod) (domain.StatusCounts, error)
	TopAuthors(ctx context.Context, period domain.StatisticsPeriod, limit int) ([]domain.AuthorRank, error)
}
