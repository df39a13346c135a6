package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/samber/lo"
)

type resultState int

const (
	resultsHidden resultState = iota
	resultsTable
	resultsEmpty
)

const (
	colShortID = 10
	colAuthor  = 14
	colEmail   = 26
	colTime    = 19
	minTitle   = 20
)

type openDetailMsg struct {
	commit models.Commit
}

// commitRow is the view model of one result row. Open yields the message
// that shows this row's commit in the detail overlay.
type commitRow struct {
	Cells table.Row
	Open  tea.Cmd
}

// renderRows maps commits to table rows, each bound to its own commit.
func renderRows(commits []models.Commit) []commitRow {
	return lo.Map(commits, func(c models.Commit, _ int) commitRow {
		return commitRow{
			Cells: table.Row{
				SingleLine(c.ShortID),
				SingleLine(c.AuthorName),
				SingleLine(c.AuthorEmail),
				c.DisplayTime(),
				SingleLine(c.Title),
			},
			Open: func() tea.Msg { return openDetailMsg{commit: c} },
		}
	})
}

type ResultsView struct {
	table      table.Model
	rows       []commitRow
	pagination models.Pagination
	state      resultState
	width      int
	height     int
}

func NewResultsView() *ResultsView {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("cyan"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("white")).
		Background(lipgloss.Color("238")).
		Bold(false)
	t.SetStyles(styles)

	return &ResultsView{table: t}
}

func columns(width int) []table.Column {
	// Every column carries one cell of padding on each side.
	title := width - (colShortID + colAuthor + colEmail + colTime) - 5*2
	if title < minTitle {
		title = minTitle
	}
	return []table.Column{
		{Title: "提交ID", Width: colShortID},
		{Title: "作者", Width: colAuthor},
		{Title: "邮箱", Width: colEmail},
		{Title: "时间", Width: colTime},
		{Title: "标题", Width: title},
	}
}

// SetPage replaces the rows and pagination with a new server response.
func (r *ResultsView) SetPage(page models.CommitPage) {
	r.pagination = page.Pagination
	r.rows = renderRows(page.Items)
	r.table.SetRows(lo.Map(r.rows, func(row commitRow, _ int) table.Row { return row.Cells }))
	r.table.GotoTop()
	if len(r.rows) == 0 {
		r.state = resultsEmpty
	} else {
		r.state = resultsTable
	}
}

// Hide hides the table and the empty state, keeping the last rows.
func (r *ResultsView) Hide() {
	r.state = resultsHidden
	r.table.Blur()
}

// Reset drops all rows and hides the view.
func (r *ResultsView) Reset() {
	r.Hide()
	r.rows = nil
	r.pagination = models.Pagination{}
	r.table.SetRows(nil)
}

func (r *ResultsView) State() resultState {
	return r.state
}

func (r *ResultsView) Rows() []commitRow {
	return r.rows
}

// Selected returns the row under the cursor.
func (r *ResultsView) Selected() (commitRow, bool) {
	i := r.table.Cursor()
	if r.state != resultsTable || i < 0 || i >= len(r.rows) {
		return commitRow{}, false
	}
	return r.rows[i], true
}

func (r *ResultsView) Focus() {
	r.table.Focus()
}

func (r *ResultsView) Blur() {
	r.table.Blur()
}

func (r *ResultsView) Focused() bool {
	return r.table.Focused()
}

func (r *ResultsView) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.table.SetColumns(columns(width))
	r.table.SetWidth(width)
	h := height - 4 // pagination lines and table header
	if h < 3 {
		h = 3
	}
	r.table.SetHeight(h)
}

func (r *ResultsView) Update(msg tea.Msg) (*ResultsView, tea.Cmd) {
	if r.state != resultsTable {
		return r, nil
	}
	var cmd tea.Cmd
	r.table, cmd = r.table.Update(msg)
	return r, cmd
}

func (r *ResultsView) View() string {
	switch r.state {
	case resultsEmpty:
		return "\n" + mutedStyle.Render("  没有找到提交记录")
	case resultsTable:
		return r.table.View() + "\n" + r.renderPagination()
	}
	return ""
}

func (r *ResultsView) renderPagination() string {
	prev, next := disabledButtonStyle, disabledButtonStyle
	if r.pagination.HasPrev() {
		prev = enabledButtonStyle
	}
	if r.pagination.HasNext() {
		next = enabledButtonStyle
	}

	parts := []string{
		mutedStyle.Render("显示 " + r.pagination.RangeText()),
		prev.Render("‹ 上一页"),
		labelStyle.Render(r.pagination.PageText()),
		next.Render("下一页 ›"),
	}
	return strings.Join(parts, "  ")
}
