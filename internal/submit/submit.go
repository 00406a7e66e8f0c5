// Package submit drives a form through validation, one network call and
// the follow-up refresh of the view that hosts it.
//
// A Form is a value, updated the same way as any bubbletea model:
//
//	form, cmd = form.Submit(check, send)
//	...
//	form, cmd = form.Update(msg)
//
// Every Form carries its own id, so results addressed to one form are
// ignored by any other form that happens to see them.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/internal/validate"
	"github.com/collectorscorner/corner/pkg/client"
)

// DefaultDelay is how long the success message stays before Refresh runs.
const DefaultDelay = time.Second

// State is the workflow state of a Form.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Refresh is supplied by the hosting view and re-fetches whatever the
// submission changed. It runs exactly once per successful submission.
type Refresh func() tea.Cmd

// Messages shown for errors without a server-provided message.
const (
	MsgAuthExpired = "session expired, please sign in again"
	MsgNetwork     = "cannot reach the server"
	MsgRejected    = "request was rejected"
	MsgGeneric     = "something went wrong"
)

type resultMsg struct {
	id  string
	err error
}

type delayMsg struct {
	id string
}

// Form is the submission state of one form instance.
type Form struct {
	id      string
	state   State
	errs    validate.ErrorMap
	message string

	successText   string
	delay         time.Duration
	refresh       Refresh
	onAuthExpired func() tea.Cmd
	sessions      session.Store
}

// Option configures a Form.
type Option func(*Form)

// WithDelay sets how long Succeeded lasts before Refresh runs.
func WithDelay(d time.Duration) Option {
	return func(f *Form) { f.delay = d }
}

// WithRefresh sets the callback run after a successful submission.
func WithRefresh(r Refresh) Option {
	return func(f *Form) { f.refresh = r }
}

// WithAuthExpired sets the hook run when the server rejects the session.
func WithAuthExpired(hook func() tea.Cmd) Option {
	return func(f *Form) { f.onAuthExpired = hook }
}

// WithSessions sets the store cleared on AuthExpired.
func WithSessions(s session.Store) Option {
	return func(f *Form) { f.sessions = s }
}

// WithSuccessMessage sets the transient message shown on success.
func WithSuccessMessage(text string) Option {
	return func(f *Form) { f.successText = text }
}

// New creates an idle form with a fresh id.
func New(opts ...Option) Form {
	f := Form{
		id:          uuid.NewString(),
		errs:        validate.ErrorMap{},
		delay:       DefaultDelay,
		successText: "saved",
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func (f Form) ID() string                { return f.id }
func (f Form) State() State              { return f.state }
func (f Form) Errors() validate.ErrorMap { return f.errs }
func (f Form) Message() string           { return f.message }

// Err returns the error message for field, or "".
func (f Form) Err(field string) string { return f.errs[field] }

// Busy reports whether the submit control should be disabled.
func (f Form) Busy() bool {
	return f.state == Submitting || f.state == Succeeded
}

// Submit validates with check and, when the result is empty, returns a
// command that runs send. It does nothing while the form is busy.
func (f Form) Submit(check func() validate.ErrorMap, send func() error) (Form, tea.Cmd) {
	if f.Busy() {
		return f, nil
	}
	f.state = Validating
	f.message = ""

	errs := check()
	if errs == nil {
		errs = validate.ErrorMap{}
	}
	f.errs = errs
	if !errs.Valid() {
		f.state = Idle
		return f, nil
	}

	f.state = Submitting
	id := f.id
	return f, func() tea.Msg {
		return resultMsg{id: id, err: send()}
	}
}

// Update handles the form's own messages. Anything else is ignored.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		if msg.id != f.id || f.state != Submitting {
			return f, nil
		}
		if msg.err == nil {
			f.state = Succeeded
			f.message = f.successText
			id := f.id
			return f, tea.Tick(f.delay, func(time.Time) tea.Msg { return delayMsg{id: id} })
		}
		return f.fail(msg.err)

	case delayMsg:
		if msg.id != f.id || f.state != Succeeded {
			return f, nil
		}
		f.state = Idle
		f.message = ""
		if f.refresh != nil {
			return f, f.refresh()
		}
	}
	return f, nil
}

func (f Form) fail(err error) (Form, tea.Cmd) {
	f.state = Failed
	f.message = ErrorMessage(err)

	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.Kind == client.KindValidation && len(apiErr.Fields) > 0 {
		f.errs = validate.ErrorMap{}
		f.errs.Merge(apiErr.Fields)
	}

	if !client.IsKind(err, client.KindAuthExpired) {
		return f, nil
	}
	if f.sessions != nil {
		if cerr := f.sessions.Clear(context.Background()); cerr != nil {
			f.message = fmt.Sprintf("%s (%v)", f.message, cerr)
		}
	}
	if f.onAuthExpired != nil {
		return f, f.onAuthExpired()
	}
	return f, nil
}

// Edit clears the error of field. A failed form becomes idle again.
func (f Form) Edit(field string) Form {
	if len(f.errs) > 0 {
		errs := make(validate.ErrorMap, len(f.errs))
		errs.Merge(f.errs)
		errs.Clear(field)
		f.errs = errs
	}
	if f.state == Failed {
		f.state = Idle
		f.message = ""
	}
	return f
}

// ErrorMessage turns an error from the client into a line for the user.
// Server-provided messages are shown verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		return MsgGeneric
	}
	switch apiErr.Kind {
	case client.KindApplication, client.KindValidation:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgRejected
	case client.KindAuthExpired:
		return MsgAuthExpired
	case client.KindNetwork:
		return MsgNetwork
	case client.KindServer:
		if apiErr.Message != "" {
			return fmt.Sprintf("server error (HTTP %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Sprintf("server error (HTTP %d)", apiErr.StatusCode)
	default:
		return MsgGeneric
	}
}
