package domain

import "time"

// StatisticsPeriod bounds statistics queries to one document type and a
// submission date range.
type StatisticsPeriod struct {
	DocType string
	From    time.Time
	To      time.Time
}

type StatusCounts struct {
	DocType   string `json:"doc_type"`
	Submitted int    `json:"submitted"`
	Approved  int    `json:"approved"`
	Rejected  int    `json:"rejected"`
}

type AuthorRank struct {
	Author         string `json:"author"`
	SubmittedCount int    `json:"submitted_count"`
}

type Statistics struct {
	Period     StatisticsPeriod `json:"-"`
	Counts     StatusCounts     `json:"counts"`
	TopAuthors []AuthorRank     `json:"top_authors"`
}
