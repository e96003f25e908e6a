package httpadapter

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp files.
const maxUploadMemory = 16 << 20

type documentContentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DocType     string `json:"doc_type"`
}

func (req documentContentRequest) toContent() ports.DocumentContent {
	return ports.DocumentContent{
		Title:       req.Title,
		Description: req.Description,
		DocType:     req.DocType,
	}
}

func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	var req documentContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.workflow.Create(r.Context(), userFromContext(r.Context()), req.toContent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.finder.Get(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) saveDocument(w http.ResponseWriter, r *http.Request) {
	rt.authorTransition(w, r, "save", rt.workflow.Save)
}

func (rt *Router) submitDocument(w http.ResponseWriter, r *http.Request) {
	rt.authorTransition(w, r, "submit", rt.workflow.Submit)
}

func (rt *Router) authorTransition(
	w http.ResponseWriter,
	r *http.Request,
	transition string,
	apply func(ctx context.Context, actor, documentID string, content ports.DocumentContent, uploads []ports.FileUpload) (*domain.Document, error),
) {
	content, uploads, cleanup, err := parseDocumentForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer cleanup()

	doc, err := apply(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"), content, uploads)
	if rt.metrics != nil {
		rt.metrics.RecordTransition(rt.service, transition, err)
		if domain.IsKind(err, domain.ErrInvalidState) {
			rt.metrics.RecordConflict(rt.service, transition)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) approveDocument(w http.ResponseWriter, r *http.Request) {
	err := rt.workflow.Approve(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"))
	if rt.metrics != nil {
		rt.metrics.RecordTransition(rt.service, "approve", err)
		if domain.IsKind(err, domain.ErrInvalidState) {
			rt.metrics.RecordConflict(rt.service, "approve")
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusApproved)})
}

func (rt *Router) rejectDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	err := rt.workflow.Reject(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"), req.Comment)
	if rt.metrics != nil {
		rt.metrics.RecordTransition(rt.service, "reject", err)
		if domain.IsKind(err, domain.ErrInvalidState) {
			rt.metrics.RecordConflict(rt.service, "reject")
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusRejected)})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	err := rt.workflow.Delete(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listForApproval(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	docs, err := rt.finder.ForApprover(r.Context(), userFromContext(r.Context()), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) listMine(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	docs, err := rt.finder.ForAuthor(r.Context(), userFromContext(r.Context()), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func parseListQuery(r *http.Request) (ports.ListQuery, error) {
	query := ports.ListQuery{
		TitleContains: strings.TrimSpace(r.URL.Query().Get("title")),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return ports.ListQuery{}, err
		}
		query.Status = &status
	}
	return query, nil
}

// parseDocumentForm reads the content fields and optional attachments of a
// save/submit action. JSON bodies carry content only; multipart bodies may
// add files under the "files" field.
func parseDocumentForm(r *http.Request) (ports.DocumentContent, []ports.FileUpload, func(), error) {
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return ports.DocumentContent{}, nil, noop, err
		}
		content := ports.DocumentContent{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			DocType:     r.FormValue("doc_type"),
		}
		var uploads []ports.FileUpload
		if r.MultipartForm != nil {
			for _, header := range r.MultipartForm.File["files"] {
				part, err := header.Open()
				if err != nil {
					return ports.DocumentContent{}, nil, noop, err
				}
				uploads = append(uploads, ports.FileUpload{
					Name:        header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Body:        part,
				})
			}
		}
		cleanup := func() {
			for _, u := range uploads {
				if closer, ok := u.Body.(interface{ Close() error }); ok {
					_ = closer.Close()
				}
			}
			_ = r.MultipartForm.RemoveAll()
		}
		return content, uploads, cleanup, nil
	}

	var req documentContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ports.DocumentContent{}, nil, noop, err
	}
	return req.toContent(), nil, noop, nil
}
