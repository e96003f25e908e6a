package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

type StatisticsRepository struct {
	db *sql.DB
}

func NewStatisticsRepository(db *sql.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// periodClause builds the WHERE clause for a statistics period. Zero From/To
// bounds are open: an omitted bound must widen the window, not empty it.
func periodClause(period domain.StatisticsPeriod) (string, []any) {
	clause := "WHERE doc_type = $1 AND submission_date IS NOT NULL"
	args := []any{period.DocType}
	if !period.From.IsZero() {
		args = append(args, period.From)
		clause += fmt.Sprintf(" AND submission_date >= $%d", len(args))
	}
	if !period.To.IsZero() {
		args = append(args, period.To)
		clause += fmt.Sprintf(" AND submission_date < $%d", len(args))
	}
	return clause, args
}

func (r *StatisticsRepository) CountByStatus(ctx context.Context, period domain.StatisticsPeriod) (domain.StatusCounts, error) {
	clause, args := periodClause(period)
	counts := domain.StatusCounts{DocType: period.DocType}
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*) FILTER (WHERE status = 'SUBMITTED'),
	COUNT(*) FILTER (WHERE status = 'APPROVED'),
	COUNT(*) FILTER (WHERE status = 'REJECTED')
FROM documents
`+clause, args...).
		Scan(&counts.Submitted, &counts.Approved, &counts.Rejected)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}
	return counts, nil
}

func (r *StatisticsRepository) TopAuthors(ctx context.Context, period domain.StatisticsPeriod, limit int) ([]domain.AuthorRank, error) {
	clause, args := periodClause(period)
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT author, COUNT(*) AS submitted
FROM documents
%s
GROUP BY author
ORDER BY submitted DESC, author
LIMIT $%d
`, clause, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("query top authors: %w", err)
	}
	defer rows.Close()

	var ranks []domain.AuthorRank
	for rows.Next() {
		var rank domain.AuthorRank
		if err := rows.Scan(&rank.Author, &rank.SubmittedCount); err != nil {
			return nil, fmt.Errorf("scan author rank: %w", err)
		}
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate author ranks: %w", err)
	}
	return ranks, nil
}
