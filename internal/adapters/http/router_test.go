package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

type workflowFake struct {
	createFn  func(ctx context.Context, author string, content ports.DocumentContent) (*domain.Document, error)
	saveFn    func(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error)
	submitFn  func(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error)
	approveFn func(ctx context.Context, reviewer, documentID string) error
	rejectFn  func(ctx context.Context, reviewer, documentID, comment string) error
	deleteFn  func(ctx context.Context, actor, documentID string) error
}

func (f *workflowFake) Create(ctx context.Context, author string, content ports.DocumentContent) (*domain.Document, error) {
	return f.createFn(ctx, author, content)
}

func (f *workflowFake) Save(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error) {
	return f.saveFn(ctx, actor, documentID, content, uploads)
}

func (f *workflowFake) Submit(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error) {
	return f.submitFn(ctx, actor, documentID, content, uploads)
}

func (f *workflowFake) Approve(ctx context.Context, reviewer, documentID string) error {
	return f.approveFn(ctx, reviewer, documentID)
}

func (f *workflowFake) Reject(ctx context.Context, reviewer, documentID, comment string) error {
	return f.rejectFn(ctx, reviewer, documentID, comment)
}

func (f *workflowFake) Delete(ctx context.Context, actor, documentID string) error {
	return f.deleteFn(ctx, actor, documentID)
}

type finderFake struct {
	getFn         func(ctx context.Context, actor, documentID string) (*domain.Document, error)
	forApproverFn func(ctx context.Context, reviewer string, query ports.ListQuery) ([]domain.Document, error)
	forAuthorFn   func(ctx context.Context, author string, query ports.ListQuery) ([]domain.Document, error)
}

func (f *finderFake) Get(ctx context.Context, actor, documentID string) (*domain.Document, error) {
	return f.getFn(ctx, actor, documentID)
}

func (f *finderFake) ForApprover(ctx context.Context, reviewer string, query ports.ListQuery) ([]domain.Document, error) {
	return f.forApproverFn(ctx, reviewer, query)
}

func (f *finderFake) ForAuthor(ctx context.Context, author string, query ports.ListQuery) ([]domain.Document, error) {
	return f.forAuthorFn(ctx, author, query)
}

type fileServiceFake struct {
	attachFn   func(ctx context.Context, actor, documentID string, upload ports.FileUpload) (*domain.File, error)
	removeFn   func(ctx context.Context, actor, fileID string) error
	fetchFn    func(ctx context.Context, documentID string) ([]domain.File, error)
	downloadFn func(ctx context.Context, fileID string) (*ports.DownloadedFile, error)
}

func (f *fileServiceFake) Attach(ctx context.Context, actor, documentID string, upload ports.FileUpload) (*domain.File, error) {
	return f.attachFn(ctx, actor, documentID, upload)
}

func (f *fileServiceFake) Remove(ctx context.Context, actor, fileID string) error {
	return f.removeFn(ctx, actor, fileID)
}

func (f *fileServiceFake) Fetch(ctx context.Context, documentID string) ([]domain.File, error) {
	return f.fetchFn(ctx, documentID)
}

func (f *fileServiceFake) Download(ctx context.Context, fileID string) (*ports.DownloadedFile, error) {
	return f.downloadFn(ctx, fileID)
}

type statsServiceFake struct {
	collectFn func(ctx context.Context, period domain.StatisticsPeriod, topLimit int) (*domain.Statistics, error)
}

func (f *statsServiceFake) Collect(ctx context.Context, period domain.StatisticsPeriod, topLimit int) (*domain.Statistics, error) {
	return f.collectFn(ctx, period, topLimit)
}

type exporterFake struct{}

func (exporterFake) Render(domain.Statistics) ([]byte, error) {
	return []byte("xlsx-bytes"), nil
}

type routerFixture struct {
	workflow *workflowFake
	finder   *finderFake
	files    *fileServiceFake
	stats    *statsServiceFake
}

func newTestHandler(t *testing.T, fx routerFixture) http.Handler {
	t.Helper()
	if fx.workflow == nil {
		fx.workflow = &workflowFake{}
	}
	if fx.finder == nil {
		fx.finder = &finderFake{}
	}
	if fx.files == nil {
		fx.files = &fileServiceFake{}
	}
	if fx.stats == nil {
		fx.stats = &statsServiceFake{}
	}
	rt := NewRouter("dms-api-test", fx.workflow, fx.finder, fx.files, fx.stats, exporterFake{}, nil, TrafficPolicy{})
	return rt.Handler()
}

func doRequest(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestMissingUserHeaderIsRejected(t *testing.T) {
	handler := newTestHandler(t, routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/mine", nil)
	res := doRequest(t, handler, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestCreateDocumentReturnsDraft(t *testing.T) {
	handler := newTestHandler(t, routerFixture{
		workflow: &workflowFake{
			createFn: func(_ context.Context, author string, content ports.DocumentContent) (*domain.Document, error) {
				if author != "alice" {
					t.Fatalf("author = %q", author)
				}
				return &domain.Document{ID: "d1", Author: author, Title: content.Title, Status: domain.StatusDraft}, nil
			},
		},
	})

	body := `{"title":"Q1 invoices","doc_type":"INVOICE"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader(body))
	req.Header.Set("X-User", "alice")
	res := doRequest(t, handler, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.Status != domain.StatusDraft || doc.ID != "d1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.WrapError(domain.ErrValidation, "t", io.EOF), http.StatusBadRequest},
		{"unauthorized", domain.WrapError(domain.ErrUnauthorized, "t", io.EOF), http.StatusForbidden},
		{"not_found", domain.WrapError(domain.ErrNotFound, "t", io.EOF), http.StatusNotFound},
		{"invalid_state", domain.WrapError(domain.ErrInvalidState, "t", io.EOF), http.StatusConflict},
		{"temporary", domain.WrapError(domain.ErrTemporary, "t", io.EOF), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(t, routerFixture{
				workflow: &workflowFake{
					approveFn: func(context.Context, string, string) error { return tc.err },
				},
			})

			req := httptest.NewRequest(http.MethodPut, "/v1/documents/d1/approve", nil)
			req.Header.Set("X-User", "boss")
			res := doRequest(t, handler, req)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestListMineParsesStatusFilter(t *testing.T) {
	var captured ports.ListQuery
	handler := newTestHandler(t, routerFixture{
		finder: &finderFake{
			forAuthorFn: func(_ context.Context, _ string, query ports.ListQuery) ([]domain.Document, error) {
				captured = query
				return []domain.Document{}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/mine?status=submitted&title=invoice", nil)
	req.Header.Set("X-User", "alice")
	res := doRequest(t, handler, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if captured.Status == nil || *captured.Status != domain.StatusSubmitted {
		t.Fatalf("status filter not parsed: %+v", captured)
	}
	if captured.TitleContains != "invoice" {
		t.Fatalf("title filter not parsed: %+v", captured)
	}
}

func TestListMineRejectsUnknownStatus(t *testing.T) {
	handler := newTestHandler(t, routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/mine?status=PENDING", nil)
	req.Header.Set("X-User", "alice")
	res := doRequest(t, handler, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSubmitAcceptsMultipartWithFiles(t *testing.T) {
	var gotContent ports.DocumentContent
	var gotUploads int
	handler := newTestHandler(t, routerFixture{
		workflow: &workflowFake{
			submitFn: func(_ context.Context, _, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error) {
				gotContent = content
				gotUploads = len(uploads)
				return &domain.Document{ID: documentID, Status: domain.StatusSubmitted}, nil
			},
		},
	})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("title", "Q1 invoices")
	_ = form.WriteField("doc_type", "INVOICE")
	part, _ := form.CreateFormFile("files", "scan.pdf")
	_, _ = part.Write([]byte("pdf-bytes"))
	form.Close()

	req := httptest.NewRequest(http.MethodPut, "/v1/documents/d1/submit", &buf)
	req.Header.Set("X-User", "alice")
	req.Header.Set("Content-Type", form.FormDataContentType())
	res := doRequest(t, handler, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if gotContent.Title != "Q1 invoices" || gotContent.DocType != "INVOICE" {
		t.Fatalf("content not parsed: %+v", gotContent)
	}
	if gotUploads != 1 {
		t.Fatalf("expected 1 upload, got %d", gotUploads)
	}
}

func TestAttachFileRequiresMultipartField(t *testing.T) {
	handler := newTestHandler(t, routerFixture{})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/d1/files", strings.NewReader("{}"))
	req.Header.Set("X-User", "alice")
	res := doRequest(t, handler, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDownloadSetsDispositionAndContentType(t *testing.T) {
	handler := newTestHandler(t, routerFixture{
		files: &fileServiceFake{
			downloadFn: func(_ context.Context, fileID string) (*ports.DownloadedFile, error) {
				return &ports.DownloadedFile{
					File:    domain.File{ID: fileID, Name: "scan.pdf", ContentType: "application/pdf"},
					Content: io.NopCloser(strings.NewReader("pdf-bytes")),
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/files/f1", nil)
	req.Header.Set("X-User", "alice")
	res := doRequest(t, handler, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if got := res.Header().Get("Content-Disposition"); !strings.Contains(got, "scan.pdf") {
		t.Fatalf("content disposition = %q", got)
	}
	if res.Body.String() != "pdf-bytes" {
		t.Fatalf("body = %q", res.Body.String())
	}
}

func TestStatisticsExportStreamsWorkbook(t *testing.T) {
	handler := newTestHandler(t, routerFixture{
		stats: &statsServiceFake{
			collectFn: func(_ context.Context, period domain.StatisticsPeriod, _ int) (*domain.Statistics, error) {
				if period.DocType != "INVOICE" {
					t.Fatalf("doc_type = %q", period.DocType)
				}
				return &domain.Statistics{Counts: domain.StatusCounts{DocType: period.DocType}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/statistics/export?doc_type=INVOICE&from=2026-01-01&to=2026-03-31", nil)
	req.Header.Set("X-User", "boss")
	res := doRequest(t, handler, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Header().Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("content type = %q", res.Header().Get("Content-Type"))
	}
	if res.Body.String() != "xlsx-bytes" {
		t.Fatalf("body = %q", res.Body.String())
	}
}

func TestOpenAPIDocumentIsServedWithoutIdentity(t *testing.T) {
	handler := newTestHandler(t, routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	res := doRequest(t, handler, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi response is not json: %v", err)
	}
	if doc["openapi"] == "" {
		t.Fatalf("missing openapi version field")
	}
}

func TestHealthzNeedsNoIdentity(t *testing.T) {
	handler := newTestHandler(t, routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := doRequest(t, handler, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}
