package models

import "fmt"

// Pagination is the server-computed summary returned with every commit page.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Range returns the 1-based, inclusive item range shown on the current page.
// Both ends are 0 for an empty result.
func (p Pagination) Range() (start, end int) {
	if p.Total > 0 {
		start = (p.Page-1)*p.PageSize + 1
	}
	end = min(p.Page*p.PageSize, p.Total)
	return start, end
}

func (p Pagination) RangeText() string {
	start, end := p.Range()
	return fmt.Sprintf("%d-%d 条，共 %d 条", start, end, p.Total)
}

func (p Pagination) PageText() string {
	return fmt.Sprintf("第 %d 页，共 %d 页", p.Page, p.TotalPages)
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
