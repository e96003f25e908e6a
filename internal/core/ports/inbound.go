package ports

import (
	"context"
	"io"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

// DocumentContent carries the author-editable fields of a Save/Submit action.
type DocumentContent struct {
	Title       string
	Description string
	DocType     string
}

// FileUpload is one incoming attachment.
type FileUpload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// DownloadedFile pairs attachment metadata with its content stream. The
// caller owns Content and must close it.
type DownloadedFile struct {
	File    domain.File
	Content io.ReadCloser
}

// ListQuery narrows a document listing.
type ListQuery struct {
	Status        *domain.Status
	TitleContains string
}

// DocumentWorkflow is the inbound contract for lifecycle transitions.
type DocumentWorkflow interface {
	Create(ctx context.Context, author string, content DocumentContent) (*domain.Document, error)
	Save(ctx context.Context, actor, documentID string, content DocumentContent, uploads []FileUpload) (*domain.Document, error)
	Submit(ctx context.Context, actor, documentID string, content DocumentContent, uploads []FileUpload) (*domain.Document, error)
	Approve(ctx context.Context, reviewer, documentID string) error
	Reject(ctx context.Context, reviewer, documentID, comment string) error
	Delete(ctx context.Context, actor, documentID string) error
}

// DocumentFinder is the inbound read model over documents.
type DocumentFinder interface {
	Get(ctx context.Context, actor, documentID string) (*domain.Document, error)
	ForApprover(ctx context.Context, reviewer string, query ListQuery) ([]domain.Document, error)
	ForAuthor(ctx context.Context, author string, query ListQuery) ([]domain.Document, error)
}

// FileService is the inbound contract for attachment operations.
type FileService interface {
	Attach(ctx context.Context, actor, documentID string, upload FileUpload) (*domain.File, error)
	Remove(ctx context.Context, actor, fileID string) error
	Fetch(ctx context.Context, documentID string) ([]domain.File, error)
	Download(ctx context.Context, fileID string) (*DownloadedFile, error)
}

// EligibilityResolver derives which document types a user may approve.
type EligibilityResolver interface {
	EligibleTypes(ctx context.Context, username string) ([]string, error)
	CanApprove(ctx context.Context, username string, doc *domain.Document) (bool, error)
}

// AttachmentProcessor is the inbound contract for asynchronous post-submit
// attachment processing.
type AttachmentProcessor interface {
	ProcessDocument(ctx context.Context, documentID string) error
}

// StatisticsService aggregates review activity over a period.
type StatisticsService interface {
	Collect(ctx context.Context, period domain.StatisticsPeriod, topLimit int) (*domain.Statistics, error)
}
