package models

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DateFormat      = "2006-01-02"
)

var (
	ErrMissingFields   = errors.New("请填写必填字段")
	ErrInvalidPageSize = errors.New("每页数量必须在 1 到 100 之间")
)

// Query is the full parameter set of a commit list request.
type Query struct {
	ProjectID    string `json:"project_id"`
	Branch       string `json:"branch"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	AuthorEmails string `json:"author_emails"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

// ExportQuery is a Query without pagination, used for text exports.
type ExportQuery struct {
	ProjectID    string `json:"project_id"`
	Branch       string `json:"branch"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	AuthorEmails string `json:"author_emails"`
}

// WithPage turns the filters into a list request for one page.
func (q ExportQuery) WithPage(page, size int) Query {
	return Query{
		ProjectID:    q.ProjectID,
		Branch:       q.Branch,
		StartDate:    q.StartDate,
		EndDate:      q.EndDate,
		AuthorEmails: q.AuthorEmails,
		Page:         page,
		PageSize:     size,
	}
}

func (q Query) ValidatePageSize() error {
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	return nil
}

// Validate checks the fields a text export cannot run without.
func (q ExportQuery) Validate() error {
	if q.ProjectID == "" || q.Branch == "" || q.StartDate == "" || q.EndDate == "" {
		return ErrMissingFields
	}
	return nil
}

// NormalizeEmails trims, drops blanks and de-duplicates a comma separated e-mail list.
func NormalizeEmails(raw string) string {
	emails := lo.Map(strings.Split(raw, ","), func(e string, _ int) string {
		return strings.TrimSpace(e)
	})
	emails = lo.Filter(emails, func(e string, _ int) bool {
		return e != ""
	})
	return strings.Join(lo.Uniq(emails), ",")
}

// DefaultDateRange returns today and the last day of the current month.
func DefaultDateRange(now time.Time) (start, end string) {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
	return now.Format(DateFormat), lastDay.Format(DateFormat)
}
