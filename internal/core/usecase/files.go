package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

const (
	// downloadCacheEntries bounds the LRU download cache.
	downloadCacheEntries = 128
	// maxCacheableSize keeps only small attachments in memory.
	maxCacheableSize = 1 << 20
)

// FilesUseCase manages attachments of a document: metadata rows in the file
// repository, bytes in object storage under the file ID. Downloads of small
// files are served from a bounded LRU cache; metadata is always re-fetched so
// removed files cannot be served stale.
type FilesUseCase struct {
	docs    ports.DocumentRepository
	files   ports.FileRepository
	storage ports.ObjectStorage
	cache   *lru.Cache[string, []byte]
}

func NewFilesUseCase(docs ports.DocumentRepository, files ports.FileRepository, storage ports.ObjectStorage) (*FilesUseCase, error) {
	cache, err := lru.New[string, []byte](downloadCacheEntries)
	if err != nil {
		return nil, fmt.Errorf("init download cache: %w", err)
	}
	return &FilesUseCase{docs: docs, files: files, storage: storage, cache: cache}, nil
}

func (uc *FilesUseCase) Attach(ctx context.Context, actor, documentID string, upload ports.FileUpload) (*domain.File, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrValidation, "attach file",
				fmt.Errorf("document %s does not exist", documentID))
		}
		return nil, err
	}
	if doc.Author != actor {
		return nil, domain.WrapError(domain.ErrUnauthorized, "attach file",
			fmt.Errorf("user %q is not the author of document %s", actor, documentID))
	}
	if doc.Status == domain.StatusApproved {
		return nil, domain.WrapError(domain.ErrValidation, "attach file",
			fmt.Errorf("document %s is approved and immutable", documentID))
	}

	file, err := stageUpload(ctx, uc.storage, documentID, upload)
	if err != nil {
		return nil, err
	}
	if err := uc.files.Attach(ctx, file); err != nil {
		if removeErr := uc.storage.Remove(context.Background(), file.ID); removeErr != nil {
			slog.Warn("discard staged attachment blob", "file_id", file.ID, "error", removeErr)
		}
		return nil, err
	}
	return file, nil
}

func (uc *FilesUseCase) Remove(ctx context.Context, actor, fileID string) error {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	doc, err := uc.docs.GetByID(ctx, file.DocumentID)
	if err != nil {
		return err
	}
	if doc.Author != actor {
		return domain.WrapError(domain.ErrUnauthorized, "remove file",
			fmt.Errorf("user %q is not the author of document %s", actor, doc.ID))
	}
	if doc.Status == domain.StatusApproved {
		return domain.WrapError(domain.ErrInvalidState, "remove file",
			fmt.Errorf("document %s is approved and immutable", doc.ID))
	}

	if _, err := uc.files.Remove(ctx, fileID); err != nil {
		return err
	}
	uc.cache.Remove(fileID)
	if err := uc.storage.Remove(ctx, fileID); err != nil {
		slog.Warn("orphaned attachment blob after remove", "file_id", fileID, "error", err)
	}
	return nil
}

func (uc *FilesUseCase) Fetch(ctx context.Context, documentID string) ([]domain.File, error) {
	if _, err := uc.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	files, err := uc.files.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return files, nil
}

func (uc *FilesUseCase) Download(ctx context.Context, fileID string) (*ports.DownloadedFile, error) {
	file, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		uc.cache.Remove(fileID)
		return nil, err
	}

	if cached, ok := uc.cache.Get(fileID); ok {
		return &ports.DownloadedFile{
			File:    *file,
			Content: io.NopCloser(bytes.NewReader(cached)),
		}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, storageOpTimeout)
	defer cancel()
	content, err := uc.storage.Open(openCtx, fileID)
	if err != nil {
		return nil, fmt.Errorf("open attachment blob: %w", err)
	}

	if file.Size > 0 && file.Size <= maxCacheableSize {
		raw, err := io.ReadAll(content)
		closeErr := content.Close()
		if err != nil {
			return nil, fmt.Errorf("read attachment blob: %w", err)
		}
		if closeErr != nil {
			slog.Warn("close attachment blob", "file_id", fileID, "error", closeErr)
		}
		uc.cache.Add(fileID, raw)
		return &ports.DownloadedFile{
			File:    *file,
			Content: io.NopCloser(bytes.NewReader(raw)),
		}, nil
	}

	return &ports.DownloadedFile{File: *file, Content: content}, nil
}
