package models

import (
	"strings"
	"time"
)

// DisplayTimeFormat is the zh-CN locale rendering of a timestamp.
const DisplayTimeFormat = "2006/1/2 15:04:05"

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type Commit struct {
	ID          string `json:"id"`
	ShortID     string `json:"short_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	CreatedAt   string `json:"created_at"` // as sent by the server
	Title       string `json:"title"`
	Message     string `json:"message"`
}

// Time parses CreatedAt. The second return is false if no known layout matches.
func (c Commit) Time() (time.Time, bool) {
	raw := strings.TrimSpace(c.CreatedAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayTime renders CreatedAt in local time, or the raw value if it can't be parsed.
func (c Commit) DisplayTime() string {
	t, ok := c.Time()
	if !ok {
		return c.CreatedAt
	}
	return t.Local().Format(DisplayTimeFormat)
}

type CommitPage struct {
	Items []Commit `json:"items"`
	Pagination
}

type TextExport struct {
	Content string `json:"content"`
}
