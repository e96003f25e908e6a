package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

func newDirectoryRepoWithMock(t *testing.T) (*DirectoryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DirectoryRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGroupsOfUnknownUserReturnsNotFound(t *testing.T) {
	repo, mock, done := newDirectoryRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.GroupsOf(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGroupsOfAggregatesDocTypesPerGroup(t *testing.T) {
	repo, mock, done := newDirectoryRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM user_groups").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "doc_type"}).
			AddRow("accounting", "INVOICE").
			AddRow("accounting", "RECEIPT").
			AddRow("readers", nil))

	groups, err := repo.GroupsOf(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GroupsOf() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", groups)
	}
	if groups[0].Name != "accounting" || len(groups[0].ApprovableTypes) != 2 {
		t.Fatalf("accounting group aggregated wrong: %+v", groups[0])
	}
	if groups[1].Name != "readers" || len(groups[1].ApprovableTypes) != 0 {
		t.Fatalf("group without doc types must stay empty: %+v", groups[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
