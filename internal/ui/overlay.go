package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxOverlayWidth = 96

// Overlay is a bordered, scrollable box drawn on top of the query screen.
type Overlay struct {
	title    string
	help     string
	content  string
	viewport viewport.Model
	visible  bool
	width    int
	height   int
}

func NewOverlay(title, help string) *Overlay {
	return &Overlay{
		title:    title,
		help:     help,
		viewport: viewport.New(60, 10),
	}
}

// Show fills the overlay with content and makes it visible.
func (o *Overlay) Show(content string) {
	o.content = content
	o.visible = true
	o.layout()
	o.viewport.GotoTop()
}

func (o *Overlay) Hide() {
	o.visible = false
}

func (o *Overlay) Visible() bool {
	return o.visible
}

func (o *Overlay) Content() string {
	return o.content
}

func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.layout()
}

func (o *Overlay) innerWidth() int {
	w := o.width - 4
	if w > maxOverlayWidth {
		w = maxOverlayWidth
	}
	// border and horizontal padding
	w -= 6
	if w < 20 {
		w = 20
	}
	return w
}

func (o *Overlay) layout() {
	w := o.innerWidth()
	body := lipgloss.NewStyle().Width(w).Render(o.content)

	// title, help, blank lines, border, vertical padding and the banner line below the box
	maxHeight := o.height - 12
	if maxHeight < 3 {
		maxHeight = 3
	}
	h := lipgloss.Height(body)
	if h > maxHeight {
		h = maxHeight
	}

	o.viewport.Width = w
	o.viewport.Height = h
	o.viewport.SetContent(body)
}

func (o *Overlay) Update(msg tea.Msg) (*Overlay, tea.Cmd) {
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return o, cmd
}

func (o *Overlay) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(o.title) + "\n\n")
	b.WriteString(o.viewport.View() + "\n\n")

	help := o.help
	if o.viewport.TotalLineCount() > o.viewport.Height {
		help += " • ↑/↓ 滚动"
	}
	b.WriteString(helpStyle.Render(help))
	return overlayStyle.Render(b.String())
}
