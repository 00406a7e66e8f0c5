package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/collectorscorner/corner/internal/browser"
	"github.com/collectorscorner/corner/internal/logging"
	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/pkg/client"
	"github.com/collectorscorner/corner/pkg/domain"
)

// Swapped in tests.
var (
	writeClipboard = clipboard.WriteAll
	openBrowser    = browser.Open
)

type view int

const (
	viewLogin view = iota
	viewRegister
	viewForgot
	viewReset
	viewCollections
	viewCollection
	viewAccount
	viewCreateCollection
	viewAddCard
)

func (v view) authenticated() bool {
	return v >= viewCollections
}

// -- app-level messages --

type userLoadedMsg struct {
	user *domain.UserProfile
	err  error
}

type cardsLoadedMsg struct {
	collectionID int64
	res          *client.CollectionCards
	err          error
}

// openCollectionMsg switches to the collection view.
type openCollectionMsg struct {
	collection domain.Collection
}

// showViewMsg switches between the signed-out pages.
type showViewMsg struct {
	view   view
	notice string
}

type loggedInMsg struct{}

type loggedOutMsg struct{ err error }

// authExpiredMsg is sent when the server rejected the session.
type authExpiredMsg struct{}

// formDoneMsg closes the create form that sent it.
type formDoneMsg struct{}

// Options configures the App.
type Options struct {
	Sessions     session.Store
	SuccessDelay time.Duration
	APIURL       string
	ImageURL     string
	Logger       logging.Logger
}

// App is the root Bubbletea model.
type App struct {
	api  API
	opts Options
	log  logging.Logger

	view     view
	login    loginModel
	register registerModel
	forgot   forgotModel
	reset    resetModel

	home       homeModel
	collection collectionModel
	account    accountModel
	create     createCollectionModel
	addCard    addCardModel

	user       *domain.UserProfile
	helpOpen   bool
	helpCursor int
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI. It starts on the collections page when a valid
// session is stored and on the login page otherwise.
func NewApp(api API, opts Options) App {
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.SuccessDelay <= 0 {
		opts.SuccessDelay = submit.DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	a := App{
		api:        api,
		opts:       opts,
		log:        opts.Logger.With("component", "tui"),
		login:      newLoginModel(api, opts),
		register:   newRegisterModel(api, opts),
		forgot:     newForgotModel(api, opts),
		reset:      newResetModel(api, opts),
		home:       newHomeModel(),
		collection: newCollectionModel(api, domain.Collection{}),
		account:    newAccountModel(api, opts),
	}

	sess, ok, err := opts.Sessions.Current(context.Background())
	if err != nil {
		a.log.Warn("read session", "err", err)
	}
	if ok && sess.Valid(time.Now()) {
		a.view = viewCollections
		a.home.loading = true
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.view.authenticated() {
		return tea.Batch(shimmerTickCmd(), loadUser(a.api))
	}
	return shimmerTickCmd()
}

func loadUser(api API) tea.Cmd {
	return func() tea.Msg {
		user, err := api.GetUser(context.Background())
		return userLoadedMsg{user: user, err: err}
	}
}

func loadCards(api API, collectionID int64) tea.Cmd {
	return func() tea.Msg {
		res, err := api.ListCards(context.Background(), collectionID)
		return cardsLoadedMsg{collectionID: collectionID, res: res, err: err}
	}
}

func authExpired() tea.Cmd {
	return func() tea.Msg { return authExpiredMsg{} }
}

func (a App) logout() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		return loggedOutMsg{err: api.Logout(context.Background())}
	}
}

// signedOut resets every page and shows the login page.
func (a App) signedOut(notice string) App {
	a.user = nil
	a.view = viewLogin
	a.login = newLoginModel(a.api, a.opts)
	a.login.notice = notice
	a.home = newHomeModel()
	a.account = newAccountModel(a.api, a.opts)
	a.collection = newCollectionModel(a.api, domain.Collection{})
	return a
}

func (a App) openCreateCollection() (App, tea.Cmd) {
	api := a.api
	refresh := func() tea.Cmd {
		return tea.Batch(loadUser(api), func() tea.Msg { return formDoneMsg{} })
	}
	a.create = newCreateCollectionModel(api, a.opts, refresh)
	a.view = viewCreateCollection
	return a, nil
}

func (a App) openAddCard() (App, tea.Cmd) {
	api := a.api
	id := a.collection.info.ID
	refresh := func() tea.Cmd {
		return tea.Batch(loadCards(api, id), func() tea.Msg { return formDoneMsg{} })
	}
	a.addCard = newAddCardModel(api, a.opts, a.collection.info, refresh)
	a.view = viewAddCard
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.home, _ = a.home.Update(bodyMsg)
		a.collection, _ = a.collection.Update(bodyMsg)
		a.account, _ = a.account.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case loggedInMsg:
		a.log.Info("signed in")
		a.view = viewCollections
		a.home = newHomeModel()
		a.home.loading = true
		return a, loadUser(a.api)

	case loggedOutMsg:
		if msg.err != nil {
			a.log.Warn("logout", "err", msg.err)
		}
		a.log.Info("signed out")
		return a.signedOut("signed out"), nil

	case authExpiredMsg:
		a.log.Info("session expired")
		return a.signedOut(submit.MsgAuthExpired), nil

	case showViewMsg:
		if msg.view.authenticated() {
			return a, nil
		}
		a.view = msg.view
		switch msg.view {
		case viewLogin:
			a.login = newLoginModel(a.api, a.opts)
			a.login.notice = msg.notice
		case viewRegister:
			a.register = newRegisterModel(a.api, a.opts)
		case viewForgot:
			a.forgot = newForgotModel(a.api, a.opts)
		case viewReset:
			a.reset = newResetModel(a.api, a.opts)
			a.reset.notice = msg.notice
		}
		return a, nil

	case userLoadedMsg:
		if client.IsKind(msg.err, client.KindAuthExpired) {
			return a.signedOut(submit.MsgAuthExpired), nil
		}
		if msg.err != nil {
			a.log.Warn("load user", "err", msg.err)
		} else {
			a.user = msg.user
		}
		a.home, _ = a.home.Update(msg)
		a.account, _ = a.account.Update(msg)
		return a, nil

	case cardsLoadedMsg:
		if client.IsKind(msg.err, client.KindAuthExpired) {
			return a.signedOut(submit.MsgAuthExpired), nil
		}
		if msg.err != nil {
			a.log.Warn("load cards", "collection_id", msg.collectionID, "err", msg.err)
		}
		a.collection, _ = a.collection.Update(msg)
		return a, nil

	case openCollectionMsg:
		a.collection = newCollectionModel(a.api, msg.collection)
		a.collection.loading = true
		a.collection.width, a.collection.height = a.width, a.height-4
		a.view = viewCollection
		return a, a.collection.Init()

	case formDoneMsg:
		switch a.view {
		case viewCreateCollection:
			a.view = viewCollections
		case viewAddCard:
			a.view = viewCollection
		}
		return a, nil

	case tea.KeyMsg:
		if a.helpOpen {
			return a.updateHelp(msg)
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			}
		}

		if a.view.authenticated() && !a.isEditing() {
			switch msg.String() {
			case "1":
				if a.view != viewCollections {
					a.view = viewCollections
				}
				return a, nil
			case "2":
				if a.view != viewAccount {
					a.view = viewAccount
					return a, a.account.Init()
				}
				return a, nil
			case "L":
				return a, a.logout()
			case "n":
				if a.view == viewCollections {
					return a.openCreateCollection()
				}
			case "r":
				if a.view == viewCollections {
					a.home.loading = true
					return a, loadUser(a.api)
				}
			case "a":
				if a.view == viewCollection && !a.collection.loading {
					return a.openAddCard()
				}
			case "esc":
				if a.view == viewCollection {
					a.view = viewCollections
					return a, nil
				}
			}
		}

		if msg.String() == "esc" {
			switch a.view {
			case viewCreateCollection:
				if !a.create.form.Busy() {
					a.view = viewCollections
				}
				return a, nil
			case viewAddCard:
				if !a.addCard.form.Busy() {
					a.view = viewCollection
				}
				return a, nil
			case viewRegister, viewForgot, viewReset:
				return a.Update(showViewMsg{view: viewLogin})
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewForgot:
		a.forgot, cmd = a.forgot.Update(msg)
	case viewReset:
		a.reset, cmd = a.reset.Update(msg)
	case viewCollections:
		a.home, cmd = a.home.Update(msg)
	case viewCollection:
		a.collection, cmd = a.collection.Update(msg)
	case viewAccount:
		a.account, cmd = a.account.Update(msg)
	case viewCreateCollection:
		a.create, cmd = a.create.Update(msg)
	case viewAddCard:
		a.addCard, cmd = a.addCard.Update(msg)
	}

	return a, cmd
}

func (a App) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := helpItems(a.opts.APIURL, a.opts.ImageURL)
	switch msg.String() {
	case "h", "esc":
		a.helpOpen = false
	case "q", "ctrl+c":
		return a, tea.Quit
	case "j", "down":
		if a.helpCursor < len(items)-1 {
			a.helpCursor++
		}
	case "k", "up":
		if a.helpCursor > 0 {
			a.helpCursor--
		}
	case "enter":
		if a.helpCursor < len(items) {
			openBrowser(items[a.helpCursor].url) //nolint:errcheck // best-effort browser open
		}
	}
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister, viewForgot, viewReset, viewCreateCollection, viewAddCard:
		return true
	case viewAccount:
		return a.account.mode != accountNormal
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width, lipgloss.Width(logo))

	statsLine := ""
	if a.user != nil && a.view.authenticated() {
		parts := []string{a.user.Username}
		parts = append(parts, fmt.Sprintf("%d collections", len(a.user.Collections)))
		statsLine = metaStyle.Render(strings.Join(parts, " . "))
	}
	header += "\n" + center(statsLine, a.width, lipgloss.Width(statsLine))

	tabBar := ""
	if a.view.authenticated() {
		tabBar = a.renderTabs()
	}

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+n", "register") + "  " + helpEntry("ctrl+f", "forgot password") + "  " + helpEntry("ctrl+t", "reset") + "  " + helpEntry("ctrl+c", "quit")
	case viewRegister:
		body = a.register.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "register") + "  " + helpEntry("esc", "back")
	case viewForgot:
		body = a.forgot.View()
		help = " " + helpEntry("enter", "send link") + "  " + helpEntry("esc", "back")
	case viewReset:
		body = a.reset.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "reset") + "  " + helpEntry("esc", "back")
	case viewCollections:
		body = a.home.View()
		help = " " + helpEntry("1-2", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("n", "new") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("L", "logout") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	case viewCollection:
		body = a.collection.View()
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("a", "add card") + "  " + helpEntry("c", "copy link") + "  " + helpEntry("o", "open") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("esc", "back")
	case viewAccount:
		body = a.account.View()
		help = " " + helpEntry("1-2", "tabs") + "  " + a.account.helpKeys()
	case viewCreateCollection:
		body = a.create.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("space", "toggle") + "  " + helpEntry("ctrl+s", "create") + "  " + helpEntry("esc", "cancel")
	case viewAddCard:
		body = a.addCard.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("h/l", "rarity") + "  " + helpEntry("ctrl+s", "add") + "  " + helpEntry("esc", "cancel")
	}

	if a.helpOpen {
		body = helpView(helpItems(a.opts.APIURL, a.opts.ImageURL), a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	// Chrome budget: header(2) + tabs(1) + help(1)
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar, body, help)
}

func (a App) renderTabs() string {
	tabs := []struct {
		key  string
		name string
		v    view
	}{
		{"1", "Collections", viewCollections},
		{"2", "Account", viewAccount},
	}
	active := a.view
	switch active {
	case viewCollection, viewCreateCollection, viewAddCard:
		active = viewCollections
	}

	colWidth := a.width / len(tabs)
	var b strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == active {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		b.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	return b.String()
}
