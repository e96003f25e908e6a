package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

// EligibilityUseCase derives approval rights from group membership. It is a
// pure function of the directory's current state: nothing is cached, so group
// changes take effect on the next call.
type EligibilityUseCase struct {
	directory ports.GroupDirectory
}

func NewEligibilityUseCase(directory ports.GroupDirectory) *EligibilityUseCase {
	return &EligibilityUseCase{directory: directory}
}

// EligibleTypes returns the union of approvable document types across all of
// the user's groups, sorted for stable output.
func (uc *EligibilityUseCase) EligibleTypes(ctx context.Context, username string) ([]string, error) {
	groups, err := uc.directory.GroupsOf(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve groups for %q: %w", username, err)
	}

	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, group := range groups {
		for _, docType := range group.ApprovableTypes {
			if _, ok := seen[docType]; ok {
				continue
			}
			seen[docType] = struct{}{}
			types = append(types, docType)
		}
	}
	sort.Strings(types)
	return types, nil
}

func (uc *EligibilityUseCase) CanApprove(ctx context.Context, username string, doc *domain.Document) (bool, error) {
	types, err := uc.EligibleTypes(ctx, username)
	if err != nil {
		return false, err
	}
	for _, docType := range types {
		if docType == doc.DocType {
			return true, nil
		}
	}
	return false, nil
}
