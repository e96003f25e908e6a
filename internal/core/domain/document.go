package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSaved     Status = "SAVED"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSaved, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus accepts the wire form of a status filter, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", WrapError(ErrValidation, "parse status", fmt.Errorf("unknown status %q", raw))
	}
	return s, nil
}

const (
	TitleMinLen       = 5
	TitleMaxLen       = 30
	DescriptionMaxLen = 50
	CommentMaxLen     = 50
)

type Document struct {
	ID             string     `json:"id"`
	Author         string     `json:"author"`
	DocType        string     `json:"doc_type"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	SubmissionDate *time.Time `json:"submission_date,omitempty"`
	ReviewDate     *time.Time `json:"review_date,omitempty"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	Files          []File     `json:"files,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// File is attachment metadata; the bytes live in object storage under ID.
type File struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Position    int       `json:"position"`
	Preview     string    `json:"preview,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < TitleMinLen || n > TitleMaxLen {
		return WrapError(ErrValidation, "validate title",
			fmt.Errorf("title length must be %d-%d characters, got %d", TitleMinLen, TitleMaxLen, n))
	}
	return nil
}

func ValidateDescription(description string) error {
	if n := utf8.RuneCountInString(description); n > DescriptionMaxLen {
		return WrapError(ErrValidation, "validate description",
			fmt.Errorf("description length must be at most %d characters, got %d", DescriptionMaxLen, n))
	}
	return nil
}

func ValidateComment(comment string) error {
	if n := utf8.RuneCountInString(comment); n > CommentMaxLen {
		return WrapError(ErrValidation, "validate comment",
			fmt.Errorf("comment length must be at most %d characters, got %d", CommentMaxLen, n))
	}
	return nil
}

// ValidateContent checks the author-editable fields as one unit so a failing
// title rejects the whole action before any file is touched.
func ValidateContent(title, description, docType string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	if strings.TrimSpace(docType) == "" {
		return WrapError(ErrValidation, "validate document type", errors.New("document type is required"))
	}
	return nil
}

// Transition is a conditional update applied by the document repository in a
// single transaction. It succeeds only while the document status is one of
// From; a zero-row update on an existing document is a lost-update conflict.
type Transition struct {
	DocumentID string
	From       []Status
	To         Status

	// Content fields, applied only when UpdateContent is set (author actions).
	UpdateContent bool
	Title         string
	Description   string
	DocType       string

	SetSubmissionDate bool
	SetReviewDate     bool
	ReviewedBy        string

	// Comment replaces the reviewer comment when non-nil; an empty value
	// clears it (resubmission).
	Comment *string

	NewFiles []File
}
