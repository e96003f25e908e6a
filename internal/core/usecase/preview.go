package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// PreviewUseCase runs after a document is submitted: it extracts a short
// plain-text preview from each PDF attachment so reviewers get content context
// in the listing. Preview failures never touch document state.
type PreviewUseCase struct {
	files     ports.FileRepository
	previewer ports.FilePreviewer
}

func NewPreviewUseCase(files ports.FileRepository, previewer ports.FilePreviewer) *PreviewUseCase {
	return &PreviewUseCase{files: files, previewer: previewer}
}

func (uc *PreviewUseCase) ProcessDocument(ctx context.Context, documentID string) error {
	files, err := uc.files.ListByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	var errs []error
	for _, file := range files {
		if !isPDF(file) || file.Preview != "" {
			continue
		}
		preview, err := uc.previewer.Preview(ctx, file)
		if err != nil {
			slog.Warn("attachment preview extraction", "file_id", file.ID, "error", err)
			errs = append(errs, fmt.Errorf("preview %s: %w", file.ID, err))
			continue
		}
		if preview == "" {
			continue
		}
		if err := uc.files.SetPreview(ctx, file.ID, preview); err != nil {
			errs = append(errs, fmt.Errorf("store preview %s: %w", file.ID, err))
		}
	}
	return errors.Join(errs...)
}

func isPDF(file domain.File) bool {
	if strings.EqualFold(file.ContentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(file.Name), ".pdf")
}
