package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/mattn/go-runewidth"
)

const (
	fieldProject = iota
	fieldBranch
	fieldStartDate
	fieldEndDate
	fieldAuthors
	fieldPageSize
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldProject:   "项目ID*",
	fieldBranch:    "分支*",
	fieldStartDate: "开始日期*",
	fieldEndDate:   "结束日期*",
	fieldAuthors:   "作者邮箱",
	fieldPageSize:  "每页数量",
}

// QueryForm holds the query inputs. It only reads and writes field values;
// submitting is up to the owning Model.
type QueryForm struct {
	inputs  [fieldCount]textinput.Model
	focus   int
	focused bool
	width   int
}

func NewQueryForm(now time.Time, pageSize int) *QueryForm {
	f := &QueryForm{}
	placeholders := [fieldCount]string{
		fieldProject:   "例如 123 或 group%2Fproject",
		fieldBranch:    "main",
		fieldStartDate: models.DateFormat,
		fieldEndDate:   models.DateFormat,
		fieldAuthors:   "多个邮箱用逗号分隔",
		fieldPageSize:  strconv.Itoa(models.DefaultPageSize),
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 200
		ti.Width = 40
		ti.Prompt = ""
		f.inputs[i] = ti
	}
	f.inputs[fieldStartDate].CharLimit = 10
	f.inputs[fieldEndDate].CharLimit = 10
	f.inputs[fieldPageSize].CharLimit = 3

	start, end := models.DefaultDateRange(now)
	f.inputs[fieldStartDate].SetValue(start)
	f.inputs[fieldEndDate].SetValue(end)
	f.inputs[fieldPageSize].SetValue(strconv.Itoa(pageSize))
	return f
}

// SetQuery fills every non-empty value of q into the form.
func (f *QueryForm) SetQuery(q models.Query) {
	values := map[int]string{
		fieldProject:   q.ProjectID,
		fieldBranch:    q.Branch,
		fieldStartDate: q.StartDate,
		fieldEndDate:   q.EndDate,
		fieldAuthors:   q.AuthorEmails,
	}
	if q.PageSize > 0 {
		values[fieldPageSize] = strconv.Itoa(q.PageSize)
	}
	for i, v := range values {
		if v != "" {
			f.inputs[i].SetValue(v)
		}
	}
}

func (f *QueryForm) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// ExportQuery reads the fields shared by list and export requests.
func (f *QueryForm) ExportQuery() models.ExportQuery {
	return models.ExportQuery{
		ProjectID:    f.value(fieldProject),
		Branch:       f.value(fieldBranch),
		StartDate:    f.value(fieldStartDate),
		EndDate:      f.value(fieldEndDate),
		AuthorEmails: models.NormalizeEmails(f.value(fieldAuthors)),
	}
}

// Query reads the whole form. Page is left at zero for the caller to set.
func (f *QueryForm) Query() (models.Query, error) {
	size, err := strconv.Atoi(f.value(fieldPageSize))
	if err != nil {
		return models.Query{}, models.ErrInvalidPageSize
	}
	q := f.ExportQuery().WithPage(0, size)
	if err := q.ValidatePageSize(); err != nil {
		return models.Query{}, err
	}
	return q, nil
}

func (f *QueryForm) Focused() bool {
	return f.focused
}

// Focus focuses field i.
func (f *QueryForm) Focus(i int) tea.Cmd {
	f.Blur()
	f.focused = true
	f.focus = (i + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *QueryForm) Blur() {
	f.focused = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// Step moves focus by delta. It reports false when focus would leave the
// form past either end, leaving focus unchanged.
func (f *QueryForm) Step(delta int) (bool, tea.Cmd) {
	next := f.focus + delta
	if next < 0 || next >= fieldCount {
		return false, nil
	}
	return true, f.Focus(next)
}

func (f *QueryForm) SetWidth(width int) {
	f.width = width
	w := width - 16
	if w < 20 {
		w = 20
	}
	if w > 60 {
		w = 60
	}
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

func (f *QueryForm) Update(msg tea.Msg) (*QueryForm, tea.Cmd) {
	if !f.focused {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *QueryForm) View() string {
	var b strings.Builder
	for i := range f.inputs {
		style := labelStyle
		cursor := "  "
		if f.focused && i == f.focus {
			style = activeLabelStyle
			cursor = "▸ "
		}
		label := style.Render(" " + runewidth.FillRight(fieldLabels[i], 10))
		b.WriteString(cursor + label + " " + f.inputs[i].View() + "\n")
	}
	return b.String()
}
