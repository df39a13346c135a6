package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginSubmitMsg struct {
	username string
	password string
}

type LoginView struct {
	username textinput.Model
	password textinput.Model
	focus    int
	width    int
}

func NewLoginView() *LoginView {
	user := textinput.New()
	user.Placeholder = "用户名"
	user.CharLimit = 100
	user.Width = 40
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "密码"
	pass.CharLimit = 200
	pass.Width = 40
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return &LoginView{
		username: user,
		password: pass,
	}
}

func (l *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// Focus puts the cursor back on the first empty field.
func (l *LoginView) Focus() tea.Cmd {
	if l.username.Value() != "" {
		return l.setFocus(1)
	}
	return l.setFocus(0)
}

// Reset clears the password, keeping the username for the next attempt.
func (l *LoginView) Reset() {
	l.password.SetValue("")
}

func (l *LoginView) setFocus(i int) tea.Cmd {
	l.focus = i
	if i == 0 {
		l.password.Blur()
		return l.username.Focus()
	}
	l.username.Blur()
	return l.password.Focus()
}

func (l *LoginView) Update(msg tea.Msg) (*LoginView, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			return l, l.setFocus(1 - l.focus)

		case "enter":
			if l.focus == 0 {
				return l, l.setFocus(1)
			}
			username := strings.TrimSpace(l.username.Value())
			password := l.password.Value()
			return l, func() tea.Msg { return loginSubmitMsg{username: username, password: password} }
		}

	case tea.WindowSizeMsg:
		l.width = msg.Width
	}

	if l.focus == 0 {
		l.username, cmd = l.username.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return l, cmd
}

func (l *LoginView) View() string {
	var b strings.Builder

	b.WriteString("\n" + sectionStyle.Render("登录") + "\n\n")

	userLabel, passLabel := labelStyle, labelStyle
	if l.focus == 0 {
		userLabel = activeLabelStyle
	} else {
		passLabel = activeLabelStyle
	}
	b.WriteString(userLabel.Render(" 用户名 ") + " " + l.username.View() + "\n")
	b.WriteString(passLabel.Render(" 密  码 ") + " " + l.password.View() + "\n")

	return b.String()
}
