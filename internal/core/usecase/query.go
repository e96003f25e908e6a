package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// QueryUseCase retrieves documents for a given actor. Listings come back from
// the repository ordered by submission date descending with unsubmitted
// documents last; title search is a pure filter applied on top.
type QueryUseCase struct {
	repo     ports.DocumentRepository
	resolver ports.EligibilityResolver
}

func NewQueryUseCase(repo ports.DocumentRepository, resolver ports.EligibilityResolver) *QueryUseCase {
	return &QueryUseCase{repo: repo, resolver: resolver}
}

// Get returns a single document, visible to its author and to eligible
// reviewers only.
func (uc *QueryUseCase) Get(ctx context.Context, actor, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Author == actor {
		return doc, nil
	}

	ok, err := uc.resolver.CanApprove(ctx, actor, doc)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}
	if !ok {
		return nil, domain.WrapError(domain.ErrUnauthorized, "get document",
			fmt.Errorf("user %q may not view document %s", actor, documentID))
	}
	return doc, nil
}

func (uc *QueryUseCase) ForApprover(ctx context.Context, reviewer string, query ports.ListQuery) ([]domain.Document, error) {
	types, err := uc.resolver.EligibleTypes(ctx, reviewer)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return []domain.Document{}, nil
	}

	docs, err := uc.repo.ListByTypes(ctx, types, query.Status)
	if err != nil {
		return nil, fmt.Errorf("list documents for approver: %w", err)
	}
	return filterByTitle(dedupeByID(docs), query.TitleContains), nil
}

func (uc *QueryUseCase) ForAuthor(ctx context.Context, author string, query ports.ListQuery) ([]domain.Document, error) {
	docs, err := uc.repo.ListByAuthor(ctx, author, query.Status)
	if err != nil {
		return nil, fmt.Errorf("list documents for author: %w", err)
	}
	return filterByTitle(docs, query.TitleContains), nil
}

// filterByTitle keeps documents whose title contains the needle,
// case-insensitively. An empty needle keeps everything.
func filterByTitle(docs []domain.Document, needle string) []domain.Document {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return docs
	}
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Title), needle) {
			out = append(out, doc)
		}
	}
	return out
}

func dedupeByID(docs []domain.Document) []domain.Document {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0]
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out
}
