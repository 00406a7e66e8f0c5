package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/internal/validate"
)

// newForm builds a submit.Form wired to the app's session store.
func newForm(opts Options, success string, refresh submit.Refresh) submit.Form {
	return submit.New(
		submit.WithDelay(opts.SuccessDelay),
		submit.WithSessions(opts.Sessions),
		submit.WithAuthExpired(authExpired),
		submit.WithSuccessMessage(success),
		submit.WithRefresh(refresh),
	)
}

// formKeys handles the keys shared by every page form. submitOnEnter makes
// enter on the last field submit. It returns submitted=true when the form
// should be submitted.
func formKeys(fields fieldSet, form submit.Form, msg tea.KeyMsg, submitOnEnter bool) (fieldSet, submit.Form, bool) {
	switch msg.String() {
	case "ctrl+s":
		return fields, form, true
	case "tab", "down":
		return fields.next(), form, false
	case "shift+tab", "up":
		return fields.prev(), form, false
	case "enter":
		if submitOnEnter && fields.onLast() {
			return fields, form, true
		}
		return fields.next(), form, false
	}
	if form.Busy() {
		return fields, form, false
	}
	fields, edited := fields.edit(msg)
	if edited != "" {
		form = form.Edit(edited)
	}
	return fields, form, false
}

// renderForm renders a page form with its title, fields and status line.
func renderForm(title string, fields fieldSet, form submit.Form, notice string) string {
	var b strings.Builder
	b.WriteString("\n " + titleStyle.Render(title) + "\n\n")
	b.WriteString(fields.View(form.Errors(), form.Busy()))
	b.WriteString("\n")
	b.WriteString(" " + formStatus(form, notice))
	return b.String()
}

func formStatus(form submit.Form, notice string) string {
	switch form.State() {
	case submit.Submitting:
		return dimStyle.Render("sending...")
	case submit.Succeeded:
		return successStyle.Render(form.Message())
	case submit.Failed:
		return errorStyle.Render(form.Message())
	}
	if notice != "" {
		return dimStyle.Render(notice)
	}
	return ""
}

func showView(v view, notice string) tea.Cmd {
	return func() tea.Msg { return showViewMsg{view: v, notice: notice} }
}

// -- login --

type loginModel struct {
	api    API
	fields fieldSet
	form   submit.Form
	notice string
}

func newLoginModel(api API, opts Options) loginModel {
	return loginModel{
		api: api,
		fields: newFieldSet(
			formField{key: validate.FieldUsername, label: "username"},
			formField{key: validate.FieldPassword, label: "password", kind: kindSecret},
		),
		form: newForm(opts, "signed in", func() tea.Cmd {
			return func() tea.Msg { return loggedInMsg{} }
		}),
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+n":
			return m, showView(viewRegister, "")
		case "ctrl+f":
			return m, showView(viewForgot, "")
		case "ctrl+t":
			return m, showView(viewReset, "")
		}
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, true)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.notice = ""
	username := strings.TrimSpace(m.fields.value(validate.FieldUsername))
	password := m.fields.value(validate.FieldPassword)
	api := m.api
	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap { return validate.Login(username, password) },
		func() error {
			_, err := api.Login(context.Background(), username, password)
			return err
		},
	)
	return m, cmd
}

func (m loginModel) View() string {
	return renderForm("Sign in", m.fields, m.form, m.notice)
}

// -- register --

type registerModel struct {
	api    API
	fields fieldSet
	form   submit.Form
}

func newRegisterModel(api API, opts Options) registerModel {
	return registerModel{
		api: api,
		fields: newFieldSet(
			formField{key: validate.FieldUsername, label: "username"},
			formField{key: validate.FieldEmail, label: "email"},
			formField{key: validate.FieldPassword, label: "password", kind: kindSecret, hint: "8-16 chars, a letter, a digit and a symbol"},
		),
		form: newForm(opts, "account created, you can sign in now", func() tea.Cmd {
			return showView(viewLogin, "account created, sign in to continue")
		}),
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, true)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	username := strings.TrimSpace(m.fields.value(validate.FieldUsername))
	email := strings.TrimSpace(m.fields.value(validate.FieldEmail))
	password := m.fields.value(validate.FieldPassword)
	api := m.api
	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap { return validate.Register(username, email, password) },
		func() error {
			_, err := api.Register(context.Background(), username, email, password)
			return err
		},
	)
	return m, cmd
}

func (m registerModel) View() string {
	return renderForm("Create an account", m.fields, m.form, "")
}

// -- forgot password --

type forgotModel struct {
	api    API
	fields fieldSet
	form   submit.Form
}

func newForgotModel(api API, opts Options) forgotModel {
	return forgotModel{
		api: api,
		fields: newFieldSet(
			formField{key: validate.FieldEmail, label: "email"},
		),
		form: newForm(opts, "a reset link has been sent to your email", func() tea.Cmd {
			return showView(viewReset, "paste the token from the reset email")
		}),
	}
}

func (m forgotModel) Update(msg tea.Msg) (forgotModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, true)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m forgotModel) submit() (forgotModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields.value(validate.FieldEmail))
	api := m.api
	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap { return validate.Forgot(email) },
		func() error { return api.ForgotPassword(context.Background(), email) },
	)
	return m, cmd
}

func (m forgotModel) View() string {
	return renderForm("Forgot password", m.fields, m.form, "")
}

// -- reset password --

type resetModel struct {
	api    API
	fields fieldSet
	form   submit.Form
	notice string
}

func newResetModel(api API, opts Options) resetModel {
	return resetModel{
		api: api,
		fields: newFieldSet(
			formField{key: validate.FieldResetToken, label: "reset token"},
			formField{key: validate.FieldPassword, label: "new password", kind: kindSecret, hint: "8-16 chars, a letter, a digit and a symbol"},
			formField{key: validate.FieldConfirmPassword, label: "confirm", kind: kindSecret},
		),
		form: newForm(opts, "password changed", func() tea.Cmd {
			return showView(viewLogin, "password changed, sign in with the new one")
		}),
	}
}

func (m resetModel) Update(msg tea.Msg) (resetModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var submitNow bool
		m.fields, m.form, submitNow = formKeys(m.fields, m.form, key, true)
		if submitNow {
			return m.submit()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m resetModel) submit() (resetModel, tea.Cmd) {
	m.notice = ""
	token := strings.TrimSpace(m.fields.value(validate.FieldResetToken))
	password := m.fields.value(validate.FieldPassword)
	confirm := m.fields.value(validate.FieldConfirmPassword)
	api := m.api
	var cmd tea.Cmd
	m.form, cmd = m.form.Submit(
		func() validate.ErrorMap { return validate.Reset(token, password, confirm) },
		func() error { return api.ResetPassword(context.Background(), token, password, confirm) },
	)
	return m, cmd
}

func (m resetModel) View() string {
	return renderForm("Reset password", m.fields, m.form, m.notice)
}
