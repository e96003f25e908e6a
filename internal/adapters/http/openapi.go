package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISpec []byte

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// LoadOpenAPIDocument parses and validates the embedded API description.
// Called once at startup so a malformed document fails the boot, not a
// request.
func LoadOpenAPIDocument(ctx context.Context) error {
	openAPIOnce.Do(func() {
		loader := openapi3.NewLoader()
		loader.Context = ctx

		doc, err := loader.LoadFromData(openAPISpec)
		if err != nil {
			openAPIErr = fmt.Errorf("load openapi document: %w", err)
			return
		}
		if err := doc.Validate(ctx); err != nil {
			openAPIErr = fmt.Errorf("validate openapi document: %w", err)
			return
		}
		openAPIJSON, openAPIErr = json.Marshal(doc)
	})
	return openAPIErr
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, r *http.Request) {
	if err := LoadOpenAPIDocument(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "api description unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIJSON)
}
