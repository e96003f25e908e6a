package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// editableStates are the statuses from which the author may Save or Submit.
var editableStates = []domain.Status{domain.StatusDraft, domain.StatusSaved, domain.StatusRejected}

const storageOpTimeout = 30 * time.Second

// WorkflowUseCase drives documents through the approval lifecycle. Every
// transition is validated and authorized before any state is touched, then
// applied as one conditional update so concurrent actors on the same document
// cannot both win.
type WorkflowUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	resolver ports.EligibilityResolver
	queue    ports.MessageQueue
}

func NewWorkflowUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	resolver ports.EligibilityResolver,
	queue ports.MessageQueue,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		repo:     repo,
		storage:  storage,
		resolver: resolver,
		queue:    queue,
	}
}

func (uc *WorkflowUseCase) Create(ctx context.Context, author string, content ports.DocumentContent) (*domain.Document, error) {
	if err := domain.ValidateContent(content.Title, content.Description, content.DocType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		Author:      author,
		DocType:     content.DocType,
		Title:       strings.TrimSpace(content.Title),
		Description: content.Description,
		Status:      domain.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (uc *WorkflowUseCase) Save(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error) {
	return uc.authorTransition(ctx, actor, documentID, content, uploads, domain.StatusSaved)
}

func (uc *WorkflowUseCase) Submit(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error) {
	doc, err := uc.authorTransition(ctx, actor, documentID, content, uploads, domain.StatusSubmitted)
	if err != nil && !domain.IsKind(err, domain.ErrTemporary) {
		return nil, err
	}
	// A Temporary error means the update committed and only the reload
	// failed, so the event still goes out.
	uc.publish(ctx, domain.EventDocumentSubmitted, documentID, actor)
	return doc, err
}

func (uc *WorkflowUseCase) authorTransition(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload, to domain.Status) (*domain.Document, error) {
	if err := domain.ValidateContent(content.Title, content.Description, content.DocType); err != nil {
		return nil, err
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Author != actor {
		return nil, domain.WrapError(domain.ErrUnauthorized, "author transition",
			fmt.Errorf("user %q is not the author of document %s", actor, documentID))
	}
	if !statusIn(doc.Status, editableStates) {
		return nil, domain.WrapError(domain.ErrInvalidState, "author transition",
			fmt.Errorf("document %s is %s and can no longer be edited", documentID, doc.Status))
	}

	newFiles, err := uc.stageUploads(ctx, documentID, uploads)
	if err != nil {
		return nil, err
	}

	t := domain.Transition{
		DocumentID:    documentID,
		From:          editableStates,
		To:            to,
		UpdateContent: true,
		Title:         strings.TrimSpace(content.Title),
		Description:   content.Description,
		DocType:       content.DocType,
		NewFiles:      newFiles,
	}
	if to == domain.StatusSubmitted {
		t.SetSubmissionDate = true
		cleared := ""
		t.Comment = &cleared
	}

	if err := uc.repo.ApplyTransition(ctx, t); err != nil {
		uc.discardBlobs(newFiles)
		return nil, err
	}

	updated, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		// The transition committed; only the reload failed. Surface that as a
		// transient failure so the caller re-fetches instead of retrying the
		// already-applied transition.
		return nil, domain.WrapError(domain.ErrTemporary, "reload document after transition", err)
	}
	return updated, nil
}

func (uc *WorkflowUseCase) Approve(ctx context.Context, reviewer, documentID string) error {
	return uc.review(ctx, reviewer, documentID, domain.StatusApproved, nil)
}

func (uc *WorkflowUseCase) Reject(ctx context.Context, reviewer, documentID, comment string) error {
	if err := domain.ValidateComment(comment); err != nil {
		return err
	}
	return uc.review(ctx, reviewer, documentID, domain.StatusRejected, &comment)
}

func (uc *WorkflowUseCase) review(ctx context.Context, reviewer, documentID string, to domain.Status, comment *string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	ok, err := uc.resolver.CanApprove(ctx, reviewer, doc)
	if err != nil {
		return err
	}
	if !ok {
		return domain.WrapError(domain.ErrUnauthorized, "review document",
			fmt.Errorf("user %q may not approve documents of type %q", reviewer, doc.DocType))
	}

	err = uc.repo.ApplyTransition(ctx, domain.Transition{
		DocumentID:    documentID,
		From:          []domain.Status{domain.StatusSubmitted},
		To:            to,
		SetReviewDate: true,
		ReviewedBy:    reviewer,
		Comment:       comment,
	})
	if err != nil {
		return err
	}

	event := domain.EventDocumentApproved
	if to == domain.StatusRejected {
		event = domain.EventDocumentRejected
	}
	uc.publish(ctx, event, documentID, reviewer)
	return nil
}

func (uc *WorkflowUseCase) Delete(ctx context.Context, actor, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Author != actor {
		return domain.WrapError(domain.ErrUnauthorized, "delete document",
			fmt.Errorf("user %q is not the author of document %s", actor, documentID))
	}

	storageKeys, err := uc.repo.Delete(ctx, documentID)
	if err != nil {
		return err
	}
	for _, key := range storageKeys {
		if err := uc.storage.Remove(ctx, key); err != nil {
			slog.Warn("orphaned attachment blob after document delete",
				"document_id", documentID, "storage_key", key, "error", err)
		}
	}
	return nil
}

// stageUploads writes attachment blobs before the database transaction. The
// metadata rows ride the transition; blobs are discarded if it fails.
func (uc *WorkflowUseCase) stageUploads(ctx context.Context, documentID string, uploads []ports.FileUpload) ([]domain.File, error) {
	files := make([]domain.File, 0, len(uploads))
	for _, upload := range uploads {
		file, err := stageUpload(ctx, uc.storage, documentID, upload)
		if err != nil {
			uc.discardBlobs(files)
			return nil, err
		}
		files = append(files, *file)
	}
	return files, nil
}

func (uc *WorkflowUseCase) discardBlobs(files []domain.File) {
	for _, f := range files {
		if err := uc.storage.Remove(context.Background(), f.ID); err != nil {
			slog.Warn("discard staged attachment blob", "file_id", f.ID, "error", err)
		}
	}
}

func (uc *WorkflowUseCase) publish(ctx context.Context, eventType domain.EventType, documentID, actor string) {
	err := uc.queue.PublishDocumentEvent(ctx, domain.DocumentEvent{
		Type:       eventType,
		DocumentID: documentID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("publish document event", "event", string(eventType), "document_id", documentID, "error", err)
	}
}

func stageUpload(ctx context.Context, storage ports.ObjectStorage, documentID string, upload ports.FileUpload) (*domain.File, error) {
	name := sanitizeFilename(upload.Name)
	if name == "" {
		return nil, domain.WrapError(domain.ErrValidation, "stage upload",
			fmt.Errorf("attachment has no usable file name"))
	}

	id := uuid.NewString()
	saveCtx, cancel := context.WithTimeout(ctx, storageOpTimeout)
	defer cancel()

	size, err := storage.Save(saveCtx, id, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("save attachment blob: %w", err)
	}
	return &domain.File{
		ID:          id,
		DocumentID:  documentID,
		Name:        name,
		ContentType: upload.ContentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

func statusIn(s domain.Status, set []domain.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
