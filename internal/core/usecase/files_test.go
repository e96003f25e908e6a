package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

func newFilesFixture(t *testing.T) (*FilesUseCase, *memStore, *memStorage) {
	t.Helper()
	store := newMemStore()
	storage := newMemStorage()
	uc, err := NewFilesUseCase(store, fileRepoAdapter{store}, storage)
	if err != nil {
		t.Fatalf("NewFilesUseCase() error = %v", err)
	}
	return uc, store, storage
}

func seedDocument(store *memStore, id, author string, status domain.Status) {
	store.docs[id] = &domain.Document{
		ID: id, Author: author, DocType: "INVOICE", Title: "Q1 Report", Status: status,
	}
}

func TestAttachAndFetchRoundTrip(t *testing.T) {
	uc, store, _ := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)

	first, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "scan one.pdf", ContentType: "application/pdf", Body: strings.NewReader("pdf")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if first.Name != "scan_one.pdf" {
		t.Fatalf("filename not sanitized: %q", first.Name)
	}
	second, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("notes")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	files, err := uc.Fetch(context.Background(), "d1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(files) != 2 || files[0].ID != first.ID || files[1].ID != second.ID {
		t.Fatalf("expected both files in attachment order, got %v", files)
	}
}

func TestAttachToMissingOrApprovedDocumentFailsValidation(t *testing.T) {
	uc, store, _ := newFilesFixture(t)
	seedDocument(store, "approved", "alice", domain.StatusApproved)

	upload := func() ports.FileUpload {
		return ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("a")}
	}
	if _, err := uc.Attach(context.Background(), "alice", "missing", upload()); !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing document, got %v", err)
	}
	if _, err := uc.Attach(context.Background(), "alice", "approved", upload()); !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for approved document, got %v", err)
	}
}

func TestAttachByNonAuthorFails(t *testing.T) {
	uc, store, _ := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)

	_, err := uc.Attach(context.Background(), "mallory", "d1",
		ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("a")})
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRemoveUnknownFileIsNotFound(t *testing.T) {
	uc, _, _ := newFilesFixture(t)

	if err := uc.Remove(context.Background(), "alice", "ghost"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveDetachesAndPurgesBlob(t *testing.T) {
	uc, store, storage := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)
	file, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("abc")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	if err := uc.Remove(context.Background(), "alice", file.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := storage.blobs[file.ID]; ok {
		t.Fatalf("blob must be purged on remove")
	}
	files, _ := uc.Fetch(context.Background(), "d1")
	if len(files) != 0 {
		t.Fatalf("file must be detached, got %v", files)
	}
}

func TestDownloadReturnsContentAndName(t *testing.T) {
	uc, store, _ := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)
	file, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("payload")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	dl, err := uc.Download(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer dl.Content.Close()
	raw, _ := io.ReadAll(dl.Content)
	if string(raw) != "payload" || dl.File.Name != "a.txt" {
		t.Fatalf("unexpected download: name=%q content=%q", dl.File.Name, raw)
	}
}

func TestDownloadServesSmallFilesFromCache(t *testing.T) {
	uc, store, storage := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)
	file, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("payload")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		dl, err := uc.Download(context.Background(), file.ID)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		raw, _ := io.ReadAll(dl.Content)
		dl.Content.Close()
		if string(raw) != "payload" {
			t.Fatalf("unexpected content %q", raw)
		}
	}
	if storage.opens != 1 {
		t.Fatalf("expected a single storage read, got %d", storage.opens)
	}
}

func TestDownloadAfterRemoveIsNotFound(t *testing.T) {
	uc, store, _ := newFilesFixture(t)
	seedDocument(store, "d1", "alice", domain.StatusSaved)
	file, err := uc.Attach(context.Background(), "alice", "d1",
		ports.FileUpload{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("payload")})
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if _, err := uc.Download(context.Background(), file.ID); err != nil {
		t.Fatalf("warm-up Download() error = %v", err)
	}
	if err := uc.Remove(context.Background(), "alice", file.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := uc.Download(context.Background(), file.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("cache must not resurrect removed files, got %v", err)
	}
}
