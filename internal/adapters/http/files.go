package httpadapter

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

func (rt *Router) attachFile(w http.ResponseWriter, r *http.Request) {
	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer part.Close()

	file, err := rt.files.Attach(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "documentID"),
		ports.FileUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        part,
		})
	if rt.metrics != nil {
		var size int64
		if file != nil {
			size = file.Size
		}
		rt.metrics.RecordAttachment(rt.service, "upload", size, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := rt.files.Fetch(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (rt *Router) downloadFile(w http.ResponseWriter, r *http.Request) {
	download, err := rt.files.Download(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer download.Content.Close()

	contentType := download.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": download.File.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, download.Content); err != nil {
		// Response already started; nothing left to do but log at the
		// access log level via the recorder.
		return
	}
}

func (rt *Router) removeFile(w http.ResponseWriter, r *http.Request) {
	err := rt.files.Remove(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "fileID"))
	if rt.metrics != nil {
		rt.metrics.RecordAttachment(rt.service, "remove", 0, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
