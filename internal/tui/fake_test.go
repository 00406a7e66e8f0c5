package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/pkg/client"
	"github.com/collectorscorner/corner/pkg/domain"
)

// fakeAPI records calls and returns canned responses.
type fakeAPI struct {
	sessions session.Store

	user    *domain.UserProfile
	userErr error
	cards   map[int64]*client.CollectionCards
	err     error // returned by every mutating call

	logins      []string
	logouts     int
	userLoads   int
	cardLoads   []int64
	collections []client.CreateCollectionRequest
	cardsMade   []client.CreateCardRequest
	nicknames   []string
	emails      []string
	avatars     []domain.Upload
}

var _ API = (*fakeAPI)(nil)

func newFakeAPI(sessions session.Store) *fakeAPI {
	return &fakeAPI{
		sessions: sessions,
		user: &domain.UserProfile{
			Username: "collector",
			Email:    "collector@example.com",
			Collections: []domain.Collection{
				{ID: 7, Title: "Stamps", Description: "Postage from everywhere", Category: "paper", CardsCount: 2},
				{ID: 9, Title: "Coins", Description: "Old coins", Category: "metal", IsPublic: true},
			},
		},
		cards: map[int64]*client.CollectionCards{},
	}
}

func (f *fakeAPI) Login(ctx context.Context, username, _ string) (domain.Session, error) {
	f.logins = append(f.logins, username)
	if f.err != nil {
		return domain.Session{}, f.err
	}
	s := domain.Session{AccessToken: "t1", AccessTokenExpires: time.Now().Add(time.Hour)}
	return s, f.sessions.Save(ctx, s)
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.logouts++
	return f.sessions.Clear(ctx)
}

func (f *fakeAPI) Register(context.Context, string, string, string) (*client.RegisterResponse, error) {
	return &client.RegisterResponse{}, f.err
}

func (f *fakeAPI) ForgotPassword(context.Context, string) error { return f.err }

func (f *fakeAPI) ResetPassword(context.Context, string, string, string) error { return f.err }

func (f *fakeAPI) GetUser(context.Context) (*domain.UserProfile, error) {
	f.userLoads++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeAPI) UpdateNickname(_ context.Context, nickname string) error {
	f.nicknames = append(f.nicknames, nickname)
	return f.err
}

func (f *fakeAPI) UpdateEmail(_ context.Context, email string) error {
	f.emails = append(f.emails, email)
	return f.err
}

func (f *fakeAPI) UpdateAvatar(_ context.Context, image domain.Upload) error {
	f.avatars = append(f.avatars, image)
	return f.err
}

func (f *fakeAPI) CreateCollection(_ context.Context, req client.CreateCollectionRequest) error {
	f.collections = append(f.collections, req)
	return f.err
}

func (f *fakeAPI) CreateCard(_ context.Context, req client.CreateCardRequest) error {
	f.cardsMade = append(f.cardsMade, req)
	return f.err
}

func (f *fakeAPI) ListCards(_ context.Context, collectionID int64) (*client.CollectionCards, error) {
	f.cardLoads = append(f.cardLoads, collectionID)
	if res, ok := f.cards[collectionID]; ok {
		return res, nil
	}
	return &client.CollectionCards{
		Cards:      []domain.Card{},
		Collection: domain.PlaceholderCollection(collectionID, 0),
	}, nil
}

func (f *fakeAPI) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "https://img.example.com/" + ref
}

// drain runs cmd and every command it produces, feeding the messages back
// into model. Shimmer ticks are dropped so the loop terminates.
func drain(t *testing.T, model tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("drain: too many commands")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, shimmerTickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var c tea.Cmd
			model, c = model.Update(msg)
			queue = append(queue, c)
		}
	}
	return model
}

// press sends one key through the app and drains the resulting commands.
func press(t *testing.T, a App, key tea.KeyMsg) App {
	t.Helper()
	model, cmd := a.Update(key)
	return drain(t, model, cmd).(App)
}

// typeText sends s one rune at a time.
func typeText(t *testing.T, a App, s string) App {
	t.Helper()
	for _, r := range s {
		a = press(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return a
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "front.png")
	data := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func signedInStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	err := store.Save(context.Background(), domain.Session{
		AccessToken:        "t1",
		AccessTokenExpires: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}
