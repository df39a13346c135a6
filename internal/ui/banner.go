package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const defaultBannerTTL = 5 * time.Second

type bannerExpiredMsg struct {
	id int
}

// Banner is the transient message line. Each message hides itself after ttl
// unless a newer one replaced it first.
type Banner struct {
	text    string
	isError bool
	id      int
	ttl     time.Duration
}

func NewBanner(ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = defaultBannerTTL
	}
	return &Banner{ttl: ttl}
}

func (b *Banner) Error(text string) tea.Cmd {
	return b.show(text, true)
}

func (b *Banner) Notice(text string) tea.Cmd {
	return b.show(text, false)
}

func (b *Banner) show(text string, isError bool) tea.Cmd {
	b.id++
	b.text = text
	b.isError = isError
	id := b.id
	return tea.Tick(b.ttl, func(time.Time) tea.Msg {
		return bannerExpiredMsg{id: id}
	})
}

// Expire hides the banner if id still refers to the message on display.
func (b *Banner) Expire(id int) {
	if id == b.id {
		b.text = ""
	}
}

func (b *Banner) Text() string {
	return b.text
}

func (b *Banner) IsError() bool {
	return b.text != "" && b.isError
}

func (b *Banner) View() string {
	if b.text == "" {
		return ""
	}
	if b.isError {
		return errorBannerStyle.Render("✗ " + b.text)
	}
	return noticeBannerStyle.Render("✓ " + b.text)
}
