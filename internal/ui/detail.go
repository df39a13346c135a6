package ui

import (
	"strings"

	"github.com/Johannes-Berggren/CommitQuery/internal/models"
)

// renderCommitDetail lays a commit out as a description list.
func renderCommitDetail(c models.Commit) string {
	entries := []struct {
		term string
		desc string
	}{
		{"提交ID", SingleLine(c.ShortID)},
		{"作者", SingleLine(c.AuthorName)},
		{"邮箱", SingleLine(c.AuthorEmail)},
		{"时间", c.DisplayTime()},
		{"标题", SingleLine(c.Title)},
		{"完整信息", strings.TrimRight(CleanText(c.Message), "\n")},
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(e.term) + "\n")
		for _, line := range strings.Split(e.desc, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
