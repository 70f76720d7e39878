package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shiki/internal/auth"
	"github.com/five82/shiki/internal/catalog"
)

type accountMode int

const (
	modeSignIn accountMode = iota
	modeSignUp
)

const (
	fieldEmail = iota
	fieldPassword
	fieldName
)

type accountState struct {
	mode       accountMode
	inputs     [3]textinput.Model
	focus      int
	submitting bool
	err        error
}

func newAccountState() accountState {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 36

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 36
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	name := textinput.New()
	name.Placeholder = "display name (optional)"
	name.CharLimit = 64
	name.Width = 36

	return accountState{inputs: [3]textinput.Model{email, password, name}}
}

func (a accountState) fieldCount() int {
	if a.mode == modeSignUp {
		return 3
	}
	return 2
}

func (a *accountState) setFocus(i int) tea.Cmd {
	n := a.fieldCount()
	a.focus = (i%n + n) % n
	for j := range a.inputs {
		a.inputs[j].Blur()
	}
	return a.inputs[a.focus].Focus()
}

// authMsg reports the outcome of a sign-in, sign-up, or sign-out.
type authMsg struct {
	user    *auth.User
	err     error
	signOut bool
}

func signInCmd(ctx context.Context, client *auth.Client, mode accountMode, email, password, name string) tea.Cmd {
	return func() tea.Msg {
		var (
			user *auth.User
			err  error
		)
		if mode == modeSignUp {
			user, err = client.SignUpWithEmail(ctx, email, password, name)
		} else {
			user, err = client.SignInWithEmail(ctx, email, password)
		}
		return authMsg{user: user, err: err}
	}
}

func signOutCmd(ctx context.Context, client *auth.Client) tea.Cmd {
	if client == nil {
		return func() tea.Msg { return authMsg{signOut: true, err: auth.ErrNotSignedIn} }
	}
	return func() tea.Msg {
		return authMsg{signOut: true, err: client.SignOut(ctx)}
	}
}

// openAccount shows the sign-in form when sign-in is possible.
func (m Model) openAccount() (tea.Model, tea.Cmd) {
	switch {
	case m.auth == nil || !m.auth.Enabled():
		m.flash = flash{text: userMessage(auth.ErrNotConfigured), isErr: true}
		return m, nil
	case m.user != nil:
		m.flash = flash{text: "Signed in as " + catalog.DisplayName(m.user) + ". Press O to sign out."}
		return m, nil
	}
	if m.currentView != ViewDetail {
		m.returnView = m.currentView
	}
	m.currentView = ViewAccount
	m.account.err = nil
	m.account.submitting = false
	return m, m.account.setFocus(fieldEmail)
}

func (m Model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.account.submitting {
		if msg.String() == "esc" {
			return m.leaveAccount()
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.leaveAccount()
	case msg.String() == "tab" || msg.String() == "down":
		return m, m.account.setFocus(m.account.focus + 1)
	case msg.String() == "shift+tab" || msg.String() == "up":
		return m, m.account.setFocus(m.account.focus - 1)
	case msg.String() == "ctrl+n":
		if m.account.mode == modeSignIn {
			m.account.mode = modeSignUp
		} else {
			m.account.mode = modeSignIn
		}
		m.account.err = nil
		return m, m.account.setFocus(m.account.focus)
	case msg.String() == "enter":
		if m.account.focus < m.account.fieldCount()-1 {
			return m, m.account.setFocus(m.account.focus + 1)
		}
		return m.submitAccount()
	}
	return m.updateAccountInputs(msg)
}

func (m Model) updateAccountInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.account.inputs[m.account.focus], cmd = m.account.inputs[m.account.focus].Update(msg)
	return m, cmd
}

func (m Model) submitAccount() (tea.Model, tea.Cmd) {
	email := m.account.inputs[fieldEmail].Value()
	password := m.account.inputs[fieldPassword].Value()
	name := ""
	if m.account.mode == modeSignUp {
		name = strings.TrimSpace(m.account.inputs[fieldName].Value())
	}
	m.account.submitting = true
	m.account.err = nil
	return m, signInCmd(m.ctx, m.auth, m.account.mode, email, password, name)
}

func (m Model) leaveAccount() (tea.Model, tea.Cmd) {
	for i := range m.account.inputs {
		m.account.inputs[i].Blur()
	}
	m.account.inputs[fieldPassword].SetValue("")
	m.account.submitting = false
	return m.goBack()
}

func (m Model) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	if msg.signOut {
		switch {
		case errors.Is(msg.err, auth.ErrNotSignedIn):
			m.flash = flash{text: "Not signed in"}
			return m, nil
		case msg.err != nil:
			m.flash = flash{text: userMessage(msg.err), isErr: true}
			return m, nil
		}
		m.user = nil
		m.flash = flash{text: "Signed out"}
		return m, m.refreshProfileIfShown()
	}

	if m.currentView != ViewAccount || !m.account.submitting {
		// the form was left before the provider answered
		if msg.err == nil && msg.user != nil {
			m.user = msg.user
		}
		return m, nil
	}
	m.account.submitting = false
	if msg.err != nil {
		m.account.err = msg.err
		return m, nil
	}
	m.user = msg.user
	m.flash = flash{text: "Signed in as " + catalog.DisplayName(msg.user)}
	model, _ := m.leaveAccount()
	m = model.(Model)
	return m, m.refreshProfileIfShown()
}

func (m *Model) refreshProfileIfShown() tea.Cmd {
	m.profile.loaded = false
	if m.currentView != ViewProfile {
		return nil
	}
	return m.beginProfile()
}

func (m Model) renderAccount(width, height int) string {
	styles := m.theme.Styles()
	title, action := "Sign in", "Sign in"
	if m.account.mode == modeSignUp {
		title, action = "Create account", "Create account"
	}

	labels := []string{"Email", "Password", "Name"}
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	for i := 0; i < m.account.fieldCount(); i++ {
		labelStyle := styles.MutedText
		if i == m.account.focus {
			labelStyle = styles.AccentText
		}
		b.WriteString(labelStyle.Render(padRight(labels[i], 10)))
		b.WriteString(m.account.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.account.submitting:
		b.WriteString(styles.MutedText.Render(m.spinner.View() + " contacting provider..."))
	case m.account.err != nil:
		b.WriteString(styles.DangerText.Render(userMessage(m.account.err)))
	default:
		b.WriteString(styles.FaintText.Render("enter: " + strings.ToLower(action)))
	}
	b.WriteString("\n\n")
	other := "ctrl+n: create an account instead"
	if m.account.mode == modeSignUp {
		other = "ctrl+n: sign in to an existing account"
	}
	b.WriteString(styles.FaintText.Render(other + "   esc: cancel"))

	form := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(min(56, max(width-4, 20))).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}
