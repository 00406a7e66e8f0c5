package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/internal/validate"
	"github.com/collectorscorner/corner/pkg/domain"
)

// accountMode is the state machine for profile edits.
type accountMode int

const (
	accountNormal   accountMode = iota
	accountNickname             // editing display name
	accountEmail                // editing email
	accountAvatar               // picking a new avatar file
)

// accountSavedMsg returns the page to normal mode after a successful edit.
type accountSavedMsg struct{}

type accountModel struct {
	api       API
	opts      Options
	user      *domain.UserProfile
	err       string
	statusMsg string
	width     int
	height    int

	mode    accountMode
	fields  fieldSet
	form    submit.Form
	success string
}

func newAccountModel(api API, opts Options) accountModel {
	return accountModel{api: api, opts: opts}
}

func (m accountModel) Init() tea.Cmd {
	if m.api == nil {
		return nil
	}
	return loadUser(m.api)
}

func (m accountModel) edit(mode accountMode) accountModel {
	m.mode = mode
	m.statusMsg = ""
	api := m.api
	refresh := func() tea.Cmd {
		return tea.Batch(loadUser(api), func() tea.Msg { return accountSavedMsg{} })
	}

	var (
		field   formField
		success string
	)
	switch mode {
	case accountNickname:
		field = formField{key: validate.FieldNickname, label: "nickname", hint: "up to 32 chars"}
		if m.user != nil {
			field.value = m.user.Username
		}
		success = "nickname updated"
	case accountEmail:
		field = formField{key: validate.FieldEmail, label: "email"}
		if m.user != nil {
			field.value = m.user.Email
		}
		success = "email updated"
	case accountAvatar:
		field = formField{key: validate.FieldImage, label: "avatar", hint: imageHint}
		success = "avatar updated"
	}
	m.fields = newFieldSet(field)
	m.form = newForm(m.opts, success, refresh)
	m.success = success
	return m
}

func (m accountModel) Update(msg tea.Msg) (accountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case userLoadedMsg:
		if msg.err != nil {
			m.err = submit.ErrorMessage(msg.err)
		} else {
			m.err = ""
			m.user = msg.user
		}
		return m, nil

	case accountSavedMsg:
		m.statusMsg = m.success
		m.mode = accountNormal
		return m, nil

	case linkOpenedMsg:
		if msg.err != nil {
			m.statusMsg = "open failed: " + msg.err.Error()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode != accountNormal {
			return m.updateEditing(msg)
		}
		m.statusMsg = ""
		switch msg.String() {
		case "n":
			return m.edit(accountNickname), nil
		case "e":
			return m.edit(accountEmail), nil
		case "p":
			return m.edit(accountAvatar), nil
		case "o":
			if m.user != nil && m.user.AvatarRef != "" && m.api != nil {
				link := m.api.ImageURL(m.user.AvatarRef)
				return m, func() tea.Msg { return linkOpenedMsg{err: openBrowser(link)} }
			}
			m.statusMsg = "no avatar yet"
		case "r":
			return m, m.Init()
		}
		return m, nil
	}

	if m.mode != accountNormal {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m accountModel) updateEditing(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	if msg.String() == "esc" {
		if !m.form.Busy() {
			m.mode = accountNormal
		}
		return m, nil
	}
	var submitNow bool
	m.fields, m.form, submitNow = formKeys(m.fields, m.form, msg, true)
	if !submitNow {
		return m, nil
	}

	api := m.api
	value := strings.TrimSpace(m.fields.value(m.fields.focused().key))
	var cmd tea.Cmd
	switch m.mode {
	case accountNickname:
		m.form, cmd = m.form.Submit(
			func() validate.ErrorMap { return validate.Nickname(value) },
			func() error { return api.UpdateNickname(context.Background(), value) },
		)
	case accountEmail:
		m.form, cmd = m.form.Submit(
			func() validate.ErrorMap { return validate.Email(value) },
			func() error { return api.UpdateEmail(context.Background(), value) },
		)
	case accountAvatar:
		var img *domain.Upload
		m.form, cmd = m.form.Submit(
			func() validate.ErrorMap {
				var readErrs validate.ErrorMap
				img, readErrs = loadImage(value)
				errs := validate.Avatar(img)
				errs.Merge(readErrs)
				return errs
			},
			func() error { return api.UpdateAvatar(context.Background(), *img) },
		)
	}
	return m, cmd
}

func (m accountModel) View() string {
	if m.user == nil {
		if m.err != "" {
			return " " + errorStyle.Render("error: "+m.err)
		}
		return " " + dimStyle.Render("loading account...")
	}
	u := m.user

	var b strings.Builder
	avatar := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#111118")).
		Background(lipgloss.Color("#f5b942")).
		Padding(0, 1).
		Render(u.Initial())

	b.WriteString("\n " + avatar + "  " + selectedStyle.Render(u.Username) + "\n\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "   %s  %s\n", metaStyle.Render(fmt.Sprintf("%-12s", label)), normalStyle.Render(value))
	}
	row("email", u.Email)
	row("joined", formatTime(u.CreatedAt))
	row("collections", fmt.Sprintf("%d", len(u.Collections)))
	if u.AvatarRef != "" && m.api != nil {
		row("avatar", truncStr(m.api.ImageURL(u.AvatarRef), 60))
	} else {
		row("avatar", "none")
	}

	if m.mode != accountNormal {
		b.WriteString("\n")
		b.WriteString(m.fields.View(m.form.Errors(), m.form.Busy()))
		b.WriteString("\n " + formStatus(m.form, ""))
		return b.String()
	}
	if m.statusMsg != "" {
		b.WriteString("\n " + successStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m accountModel) helpKeys() string {
	if m.mode != accountNormal {
		return helpEntry("enter", "save") + "  " + helpEntry("esc", "cancel")
	}
	return helpEntry("n", "nickname") + "  " + helpEntry("e", "email") + "  " + helpEntry("p", "avatar") + "  " +
		helpEntry("o", "open avatar") + "  " + helpEntry("L", "logout") + "  " + helpEntry("q", "quit")
}
