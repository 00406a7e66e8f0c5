package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/internal/validate"
	"github.com/collectorscorner/corner/pkg/client"
	"github.com/collectorscorner/corner/pkg/domain"
)

func noErrors() validate.ErrorMap { return validate.ErrorMap{} }

type refreshMsg struct{}

func countingRefresh(n *int) Refresh {
	return func() tea.Cmd {
		*n++
		return func() tea.Msg { return refreshMsg{} }
	}
}

func TestSubmitWithErrorsNeverSends(t *testing.T) {
	sent := 0
	f := New()

	f, cmd := f.Submit(
		func() validate.ErrorMap { return validate.Collection(validate.CollectionInput{Title: "AB"}) },
		func() error { sent++; return nil },
	)

	assert.Nil(t, cmd)
	assert.Equal(t, 0, sent)
	assert.Equal(t, Idle, f.State())
	assert.Equal(t, "must be ≥3 chars", f.Err(validate.FieldTitle))
}

func TestSubmitSuccessRefreshesOnceAfterDelay(t *testing.T) {
	refreshed := 0
	f := New(WithDelay(5*time.Millisecond), WithRefresh(countingRefresh(&refreshed)), WithSuccessMessage("collection created"))

	f, cmd := f.Submit(noErrors, func() error { return nil })
	require.NotNil(t, cmd)
	assert.Equal(t, Submitting, f.State())
	assert.True(t, f.Busy())

	f, tick := f.Update(cmd())
	require.NotNil(t, tick)
	assert.Equal(t, Succeeded, f.State())
	assert.Equal(t, "collection created", f.Message())
	assert.Equal(t, 0, refreshed, "refresh must wait for the delay")

	start := time.Now()
	delay := tick()
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	f, next := f.Update(delay)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Message())
	require.NotNil(t, next)
	assert.IsType(t, refreshMsg{}, next())

	// A duplicate delay message must not refresh again.
	f, next = f.Update(delay)
	assert.Nil(t, next)
	assert.Equal(t, 1, refreshed)
}

func TestSubmitIgnoredWhileBusy(t *testing.T) {
	sent := 0
	send := func() error { sent++; return nil }

	f := New(WithDelay(time.Millisecond))
	f, first := f.Submit(noErrors, send)
	require.NotNil(t, first)

	f, second := f.Submit(noErrors, send)
	assert.Nil(t, second)

	f, _ = f.Update(first())
	assert.Equal(t, Succeeded, f.State())
	_, third := f.Submit(noErrors, send)
	assert.Nil(t, third)

	assert.Equal(t, 1, sent)
}

func TestResultForOtherFormIgnored(t *testing.T) {
	a := New()
	b := New()
	require.NotEqual(t, a.ID(), b.ID())

	a, cmd := a.Submit(noErrors, func() error { return nil })
	b, _ = b.Submit(noErrors, func() error { return nil })

	msg := cmd()
	b, tick := b.Update(msg)
	assert.Nil(t, tick)
	assert.Equal(t, Submitting, b.State())

	a, tick = a.Update(msg)
	assert.NotNil(t, tick)
	assert.Equal(t, Succeeded, a.State())
}

func TestSubmitFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"application", &client.Error{Kind: client.KindApplication, Message: "title already taken"}, "title already taken"},
		{"application without message", &client.Error{Kind: client.KindApplication}, MsgRejected},
		{"validation", &client.Error{Kind: client.KindValidation, StatusCode: 400, Message: "bad image"}, "bad image"},
		{"network", &client.Error{Kind: client.KindNetwork, Err: errors.New("dial tcp: refused")}, MsgNetwork},
		{"server", &client.Error{Kind: client.KindServer, StatusCode: 503}, "server error (HTTP 503)"},
		{"plain", errors.New("boom"), MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			f, cmd := f.Submit(noErrors, func() error { return tt.err })
			f, next := f.Update(cmd())
			assert.Nil(t, next)
			assert.Equal(t, Failed, f.State())
			assert.Equal(t, tt.want, f.Message())
			assert.False(t, f.Busy(), "failed form can be resubmitted")
		})
	}
}

func TestValidationFieldsMerged(t *testing.T) {
	f := New()
	f, cmd := f.Submit(noErrors, func() error {
		return &client.Error{Kind: client.KindValidation, StatusCode: 400, Fields: map[string]string{"title": "already exists"}}
	})
	f, _ = f.Update(cmd())
	assert.Equal(t, "already exists", f.Err(validate.FieldTitle))

	f = f.Edit(validate.FieldTitle)
	assert.Empty(t, f.Err(validate.FieldTitle))
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Message())
}

type authExpiredMsg struct{}

func TestAuthExpiredClearsSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, domain.Session{AccessToken: "t1"}))

	hooked := false
	f := New(WithSessions(store), WithAuthExpired(func() tea.Cmd {
		hooked = true
		return func() tea.Msg { return authExpiredMsg{} }
	}))

	f, cmd := f.Submit(noErrors, func() error {
		return &client.Error{Kind: client.KindAuthExpired, StatusCode: 401}
	})
	f, next := f.Update(cmd())

	assert.True(t, hooked)
	require.NotNil(t, next)
	assert.IsType(t, authExpiredMsg{}, next())
	assert.Equal(t, MsgAuthExpired, f.Message())

	_, ok, err := store.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "session must be absent after AuthExpired")
}

func TestEditDoesNotShareErrors(t *testing.T) {
	f := New()
	f, _ = f.Submit(func() validate.ErrorMap {
		return validate.ErrorMap{"title": "x", "image": "y"}
	}, func() error { return nil })

	before := f
	after := f.Edit("title")
	assert.Equal(t, "x", before.Err("title"))
	assert.Empty(t, after.Err("title"))
	assert.Equal(t, "y", after.Err("image"))
}
