package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
)

const (
	defaultTopAuthors = 5
	maxTopAuthors     = 50
)

type StatisticsUseCase struct {
	repo ports.StatisticsRepository
}

func NewStatisticsUseCase(repo ports.StatisticsRepository) *StatisticsUseCase {
	return &StatisticsUseCase{repo: repo}
}

func (uc *StatisticsUseCase) Collect(ctx context.Context, period domain.StatisticsPeriod, topLimit int) (*domain.Statistics, error) {
	if strings.TrimSpace(period.DocType) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "collect statistics", errors.New("document type is required"))
	}
	if !period.From.IsZero() && !period.To.IsZero() && period.To.Before(period.From) {
		return nil, domain.WrapError(domain.ErrValidation, "collect statistics", errors.New("period end precedes start"))
	}
	if topLimit <= 0 {
		topLimit = defaultTopAuthors
	}
	if topLimit > maxTopAuthors {
		topLimit = maxTopAuthors
	}

	counts, err := uc.repo.CountByStatus(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	authors, err := uc.repo.TopAuthors(ctx, period, topLimit)
	if err != nil {
		return nil, fmt.Errorf("rank authors: %w", err)
	}
	return &domain.Statistics{
		Period:     period,
		Counts:     counts,
		TopAuthors: authors,
	}, nil
}
