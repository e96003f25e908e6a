package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

// memStore is an in-memory stand-in for the Postgres repositories, honoring
// the same conditional-update contract.
type memStore struct {
	docs  map[string]*domain.Document
	files map[string]*domain.File

	transitionErr error

	// failGetAt fails the Nth GetByID call with getErr, for exercising the
	// reload after a committed transition.
	failGetAt int
	getErr    error
	getCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		docs:  make(map[string]*domain.Document),
		files: make(map[string]*domain.File),
	}
}

func (s *memStore) Create(_ context.Context, doc *domain.Document) error {
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	s.getCalls++
	if s.getErr != nil && s.getCalls == s.failGetAt {
		return nil, s.getErr
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
	}
	cp := *doc
	cp.Files = s.filesOf(id)
	return &cp, nil
}

func (s *memStore) ListByAuthor(_ context.Context, author string, status *domain.Status) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range s.docs {
		if doc.Author != author {
			continue
		}
		if status != nil && doc.Status != *status {
			continue
		}
		cp := *doc
		cp.Files = s.filesOf(doc.ID)
		out = append(out, cp)
	}
	sortBySubmissionDesc(out)
	return out, nil
}

func (s *memStore) ListByTypes(_ context.Context, docTypes []string, status *domain.Status) ([]domain.Document, error) {
	typeSet := make(map[string]struct{}, len(docTypes))
	for _, t := range docTypes {
		typeSet[t] = struct{}{}
	}
	var out []domain.Document
	for _, doc := range s.docs {
		if _, ok := typeSet[doc.DocType]; !ok {
			continue
		}
		if status != nil && doc.Status != *status {
			continue
		}
		cp := *doc
		cp.Files = s.filesOf(doc.ID)
		out = append(out, cp)
	}
	sortBySubmissionDesc(out)
	return out, nil
}

func (s *memStore) ApplyTransition(_ context.Context, t domain.Transition) error {
	if s.transitionErr != nil {
		return s.transitionErr
	}
	doc, ok := s.docs[t.DocumentID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "apply transition", fmt.Errorf("document %s", t.DocumentID))
	}
	from := false
	for _, status := range t.From {
		if doc.Status == status {
			from = true
			break
		}
	}
	if !from {
		return domain.WrapError(domain.ErrInvalidState, "apply transition",
			fmt.Errorf("document %s is %s", doc.ID, doc.Status))
	}

	now := time.Now().UTC()
	doc.Status = t.To
	doc.UpdatedAt = now
	if t.UpdateContent {
		doc.Title = t.Title
		doc.Description = t.Description
		doc.DocType = t.DocType
	}
	if t.SetSubmissionDate {
		ts := now
		doc.SubmissionDate = &ts
	}
	if t.SetReviewDate {
		ts := now
		doc.ReviewDate = &ts
		doc.ReviewedBy = t.ReviewedBy
	}
	if t.Comment != nil {
		doc.Comment = *t.Comment
	}
	for _, f := range t.NewFiles {
		cp := f
		cp.Position = len(s.filesOf(doc.ID)) + 1
		s.files[f.ID] = &cp
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) ([]string, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("document %s", id))
	}
	if doc.Status == domain.StatusApproved {
		return nil, domain.WrapError(domain.ErrInvalidState, "delete document",
			fmt.Errorf("document %s is approved", id))
	}
	var keys []string
	for _, f := range s.filesOf(id) {
		keys = append(keys, f.ID)
		delete(s.files, f.ID)
	}
	delete(s.docs, id)
	return keys, nil
}

func (s *memStore) Attach(_ context.Context, file *domain.File) error {
	doc, ok := s.docs[file.DocumentID]
	if !ok {
		return domain.WrapError(domain.ErrValidation, "attach file", fmt.Errorf("document %s", file.DocumentID))
	}
	if doc.Status == domain.StatusApproved {
		return domain.WrapError(domain.ErrValidation, "attach file", fmt.Errorf("document %s is approved", doc.ID))
	}
	cp := *file
	cp.Position = len(s.filesOf(file.DocumentID)) + 1
	s.files[file.ID] = &cp
	return nil
}

func (s *memStore) Remove(_ context.Context, fileID string) (*domain.File, error) {
	f, ok := s.files[fileID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "remove file", fmt.Errorf("file %s", fileID))
	}
	delete(s.files, fileID)
	cp := *f
	return &cp, nil
}

func (s *memStore) GetFileByID(fileID string) (*domain.File, error) {
	f, ok := s.files[fileID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get file", fmt.Errorf("file %s", fileID))
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) ListByDocument(_ context.Context, documentID string) ([]domain.File, error) {
	return s.filesOf(documentID), nil
}

func (s *memStore) SetPreview(_ context.Context, fileID, preview string) error {
	f, ok := s.files[fileID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "set preview", fmt.Errorf("file %s", fileID))
	}
	f.Preview = preview
	return nil
}

func (s *memStore) filesOf(documentID string) []domain.File {
	var out []domain.File
	for _, f := range s.files {
		if f.DocumentID == documentID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func sortBySubmissionDesc(docs []domain.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].SubmissionDate, docs[j].SubmissionDate
		switch {
		case a == nil && b == nil:
			return docs[i].ID < docs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// fileRepoAdapter exposes memStore under the FileRepository port (GetByID
// collides with the document method, hence the adapter).
type fileRepoAdapter struct{ store *memStore }

func (a fileRepoAdapter) Attach(ctx context.Context, file *domain.File) error {
	return a.store.Attach(ctx, file)
}
func (a fileRepoAdapter) Remove(ctx context.Context, fileID string) (*domain.File, error) {
	return a.store.Remove(ctx, fileID)
}
func (a fileRepoAdapter) GetByID(_ context.Context, fileID string) (*domain.File, error) {
	return a.store.GetFileByID(fileID)
}
func (a fileRepoAdapter) ListByDocument(ctx context.Context, documentID string) ([]domain.File, error) {
	return a.store.ListByDocument(ctx, documentID)
}
func (a fileRepoAdapter) SetPreview(ctx context.Context, fileID, preview string) error {
	return a.store.SetPreview(ctx, fileID, preview)
}

type memStorage struct {
	blobs   map[string][]byte
	saveErr error
	opens   int
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (s *memStorage) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	s.blobs[key] = raw
	return int64(len(raw)), nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("blob missing")
	}
	s.opens++
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *memStorage) Remove(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

type memQueue struct {
	events     []domain.DocumentEvent
	publishErr error
}

func (q *memQueue) PublishDocumentEvent(_ context.Context, event domain.DocumentEvent) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.events = append(q.events, event)
	return nil
}

func (q *memQueue) SubscribeDocumentEvents(context.Context, func(context.Context, domain.DocumentEvent) error) error {
	return errors.New("not implemented")
}

type memDirectory struct {
	groups map[string][]domain.Group
}

func (d *memDirectory) GroupsOf(_ context.Context, username string) ([]domain.Group, error) {
	groups, ok := d.groups[username]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "directory lookup", fmt.Errorf("user %s", username))
	}
	return groups, nil
}
