package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// maxPreviewRunes bounds the stored preview text.
const maxPreviewRunes = 500

// Previewer extracts the leading plain text of a stored PDF attachment.
type Previewer struct {
	storage ports.ObjectStorage
}

func NewPreviewer(storage ports.ObjectStorage) *Previewer {
	return &Previewer{storage: storage}
}

func (p *Previewer) Preview(ctx context.Context, file domain.File) (string, error) {
	reader, err := p.storage.Open(ctx, file.ID)
	if err != nil {
		return "", fmt.Errorf("open attachment blob: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read attachment blob: %w", err)
	}

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", file.Name, err)
	}

	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", file.Name, err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", file.Name, err)
	}

	return truncatePreview(string(text)), nil
}

func truncatePreview(text string) string {
	collapsed := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxPreviewRunes {
		return collapsed
	}
	return string(runes[:maxPreviewRunes])
}
