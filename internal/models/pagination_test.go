package models

import "testing"

func TestPaginationRange(t *testing.T) {
	tests := []struct {
		name      string
		p         Pagination
		wantStart int
		wantEnd   int
		wantText  string
	}{
		{"middle page", Pagination{Total: 23, Page: 2, PageSize: 10, TotalPages: 3}, 11, 20, "11-20 条，共 23 条"},
		{"last partial page", Pagination{Total: 23, Page: 3, PageSize: 10, TotalPages: 3}, 21, 23, "21-23 条，共 23 条"},
		{"first page", Pagination{Total: 5, Page: 1, PageSize: 10, TotalPages: 1}, 1, 5, "1-5 条，共 5 条"},
		{"empty", Pagination{Total: 0, Page: 1, PageSize: 10, TotalPages: 1}, 0, 0, "0-0 条，共 0 条"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.p.Range()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Range() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
			if got := tt.p.RangeText(); got != tt.wantText {
				t.Errorf("RangeText() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestPaginationNavigation(t *testing.T) {
	tests := []struct {
		name     string
		p        Pagination
		wantPrev bool
		wantNext bool
	}{
		{"middle", Pagination{Total: 23, Page: 2, PageSize: 10, TotalPages: 3}, true, true},
		{"first", Pagination{Total: 23, Page: 1, PageSize: 10, TotalPages: 3}, false, true},
		{"last", Pagination{Total: 23, Page: 3, PageSize: 10, TotalPages: 3}, true, false},
		{"single", Pagination{Page: 1, PageSize: 10, TotalPages: 1}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.HasPrev(); got != tt.wantPrev {
				t.Errorf("HasPrev() = %v, want %v", got, tt.wantPrev)
			}
			if got := tt.p.HasNext(); got != tt.wantNext {
				t.Errorf("HasNext() = %v, want %v", got, tt.wantNext)
			}
		})
	}
}

func TestPageText(t *testing.T) {
	p := Pagination{Total: 23, Page: 2, PageSize: 10, TotalPages: 3}
	if got := p.PageText(); got != "第 2 页，共 3 页" {
		t.Errorf("PageText() = %q", got)
	}
}
