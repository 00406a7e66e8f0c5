package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/collectorscorner/corner/internal/session"
	"github.com/collectorscorner/corner/pkg/domain"
)

func newAuthedStore(t *testing.T, token string) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	if err := s.Save(context.Background(), domain.Session{AccessToken: token}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must be anonymous, got Authorization %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["Username"] != "collector" || body["Password"] != "abc123!@" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success":             true,
			"accessToken":         "t1",
			"accessTokenExpires":  "2099-01-01",
			"refreshToken":        "r1",
			"refreshTokenExpires": "2099-01-01",
		})
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	c := New(srv.URL, store)
	got, err := c.Login(context.Background(), "collector", "abc123!@")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	stored, ok, err := store.Current(context.Background())
	if err != nil || !ok {
		t.Fatalf("Current() = ok %v, err %v; want stored session", ok, err)
	}
	want := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	if stored.AccessToken != "t1" || stored.RefreshToken != "r1" {
		t.Errorf("stored tokens = %q/%q, want t1/r1", stored.AccessToken, stored.RefreshToken)
	}
	if !stored.AccessTokenExpires.Equal(want) || !stored.RefreshTokenExpires.Equal(want) {
		t.Errorf("stored expiries = %v/%v, want %v", stored.AccessTokenExpires, stored.RefreshTokenExpires, want)
	}
	if got.AccessToken != stored.AccessToken {
		t.Errorf("returned session %q differs from stored %q", got.AccessToken, stored.AccessToken)
	}
}

func TestLogin_ExpiryFromTokenClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "accessToken": token}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, session.NewMemoryStore())
	sess, err := c.Login(context.Background(), "u", "p")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !sess.AccessTokenExpires.Equal(exp) {
		t.Errorf("AccessTokenExpires = %v, want %v", sess.AccessTokenExpires, exp)
	}
}

func TestLogin_UnknownExpiryFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success":             true,
			"accessToken":         "t1",
			"accessTokenExpires":  "next tuesday",
			"refreshToken":        "r1",
			"refreshTokenExpires": "01/02/2099",
		})
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	sess, err := New(srv.URL, store).Login(context.Background(), "u", "p")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if !sess.AccessTokenExpires.IsZero() || !sess.RefreshTokenExpires.IsZero() {
		t.Errorf("expiries = %v/%v, want zero", sess.AccessTokenExpires, sess.RefreshTokenExpires)
	}
	if stored, ok, _ := store.Current(context.Background()); !ok || stored.RefreshToken != "r1" { //nolint:errcheck
		t.Error("session should be saved despite the unknown expiry format")
	}
}

func TestLogin_SuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "account locked"}) //nolint:errcheck
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	c := New(srv.URL, store)
	_, err := c.Login(context.Background(), "u", "p")
	if !IsKind(err, KindApplication) {
		t.Fatalf("error kind = %v, want application error (err=%v)", KindOf(err), err)
	}
	if !strings.Contains(err.Error(), "account locked") {
		t.Errorf("error = %q, want server message", err.Error())
	}
	if _, ok, _ := store.Current(context.Background()); ok { //nolint:errcheck
		t.Error("failed login must not save a session")
	}
}

func TestGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/account/get-user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"success":   true,
			"username":  "login-name",
			"nickname":  "Collector",
			"email":     "c@example.com",
			"createdAt": "2024-03-01T10:00:00",
			"collections": []map[string]any{
				{"id": 7, "title": "Stamps", "category": "paper", "cardsCount": 3},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, newAuthedStore(t, "test-token"))
	me, err := c.GetUser(context.Background())
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if me.Username != "Collector" {
		t.Errorf("Username = %q, want nickname %q", me.Username, "Collector")
	}
	if me.CreatedAt.Year() != 2024 {
		t.Errorf("CreatedAt = %v, want year 2024", me.CreatedAt)
	}
	if len(me.Collections) != 1 || me.Collections[0].ID != 7 || me.Collections[0].CardsCount != 3 {
		t.Errorf("Collections = %+v, want one collection id 7 with 3 cards", me.Collections)
	}
}

func TestAnonymousEndpointsOmitToken(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("%s: unexpected Authorization %q", r.URL.Path, auth)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "x"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newAuthedStore(t, "secret"))
	ctx := context.Background()
	if _, err := c.Register(ctx, "u", "u@example.com", "abc123!@"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := c.ForgotPassword(ctx, "u@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error: %v", err)
	}
	if err := c.ResetPassword(ctx, "tok", "abc123!@", "abc123!@"); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("got %d requests, want 3", len(paths))
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantInErr  string
		wantFields map[string]string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"duplicate title"}`, KindApplication, "duplicate title", nil},
		{"unauthorized", http.StatusUnauthorized, ``, KindAuthExpired, "HTTP 401", nil},
		{"bad request message", http.StatusBadRequest, `{"message":"title too short"}`, KindValidation, "title too short", nil},
		{"bad request fields", http.StatusBadRequest, `{"title":"One or more validation errors occurred.","errors":{"Title":["too short"]}}`, KindValidation, "validation errors", map[string]string{"title": "too short"}},
		{"bad request camel case fields", http.StatusBadRequest, `{"errors":{"ConfirmPassword":["passwords differ"],"ResetToken":["expired"]}}`, KindValidation, "HTTP 400", map[string]string{"confirmPassword": "passwords differ", "resetToken": "expired"}},
		{"server error", http.StatusInternalServerError, `<html>boom</html>`, KindServer, "HTTP 500", nil},
		{"not found", http.StatusNotFound, `{"message":"no such collection"}`, KindServer, "no such collection", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, newAuthedStore(t, "tok"))
			err := c.UpdateNickname(context.Background(), "nick")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantInErr)
			}
			if tt.wantFields != nil {
				var apiErr *Error
				if !errors.As(err, &apiErr) {
					t.Fatal("expected *Error")
				}
				for k, v := range tt.wantFields {
					if apiErr.Fields[k] != v {
						t.Errorf("Fields[%q] = %q, want %q", k, apiErr.Fields[k], v)
					}
				}
			}
		})
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newAuthedStore(t, "expired")
	c := New(srv.URL, store)
	_, err := c.GetUser(context.Background())
	if !IsKind(err, KindAuthExpired) {
		t.Fatalf("KindOf() = %v, want auth expired (err=%v)", KindOf(err), err)
	}
	if _, ok, _ := store.Current(context.Background()); ok { //nolint:errcheck
		t.Error("expected session cleared after 401")
	}
}

func TestAnonymousUnauthorizedKeepsSession(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		call    func(c *Client) error
		wantMsg string
	}{
		{
			name: "login with message",
			body: `{"success":false,"message":"invalid username or password"}`,
			call: func(c *Client) error {
				_, err := c.Login(context.Background(), "collector", "wrong")
				return err
			},
			wantMsg: "invalid username or password",
		},
		{
			name: "login without body",
			call: func(c *Client) error {
				_, err := c.Login(context.Background(), "collector", "wrong")
				return err
			},
			wantMsg: MsgWrongCredentials,
		},
		{
			name: "forgot password",
			body: `{"message":"unknown email"}`,
			call: func(c *Client) error {
				return c.ForgotPassword(context.Background(), "a@b.co")
			},
			wantMsg: "unknown email",
		},
		{
			name: "reset password",
			body: `{"message":"token expired"}`,
			call: func(c *Client) error {
				return c.ResetPassword(context.Background(), "tok", "abc123!@", "abc123!@")
			},
			wantMsg: "token expired",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, tt.body) //nolint:errcheck
			}))
			defer srv.Close()

			store := newAuthedStore(t, "still-valid")
			err := tt.call(New(srv.URL, store))
			if !IsKind(err, KindApplication) {
				t.Fatalf("KindOf() = %v, want application error (err=%v)", KindOf(err), err)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) || apiErr.Message != tt.wantMsg {
				t.Errorf("error = %v, want message %q", err, tt.wantMsg)
			}
			sess, ok, _ := store.Current(context.Background()) //nolint:errcheck
			if !ok || sess.AccessToken != "still-valid" {
				t.Error("a 401 from an anonymous endpoint must not clear the session")
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, newAuthedStore(t, "tok"))
	_, err := c.GetUser(context.Background())
	if !IsKind(err, KindNetwork) {
		t.Fatalf("KindOf() = %v, want network error (err=%v)", KindOf(err), err)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newAuthedStore(t, "tok"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GetUser(ctx); !IsKind(err, KindNetwork) {
		t.Fatalf("expected network error for canceled context, got %v", err)
	}
}

func TestCreateCollectionMultipart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collection/create" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for field, want := range map[string]string{
			"title":       "Stamps",
			"description": "Old postage stamps",
			"category":    "paper",
			"ispublic":    "true",
		} {
			if got := r.FormValue(field); got != want {
				t.Errorf("field %s = %q, want %q", field, got, want)
			}
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("FormFile(image) error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()          //nolint:errcheck
		data, _ := io.ReadAll(f) //nolint:errcheck
		if string(data) != string(png) {
			t.Errorf("image bytes = %q, want %q", data, png)
		}
		if hdr.Filename != "stamp.png" || hdr.Header.Get("Content-Type") != "image/png" {
			t.Errorf("file header = %q %q", hdr.Filename, hdr.Header.Get("Content-Type"))
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newAuthedStore(t, "tok"))
	err := c.CreateCollection(context.Background(), CreateCollectionRequest{
		Title:       "Stamps",
		Description: "Old postage stamps",
		Category:    "paper",
		IsPublic:    true,
		Image:       domain.Upload{Name: "stamp.png", ContentType: "image/png", Size: int64(len(png)), Data: png},
	})
	if err != nil {
		t.Fatalf("CreateCollection() error: %v", err)
	}
}

func TestCreateCardFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("collectionId"); got != "42" {
			t.Errorf("collectionId = %q, want 42", got)
		}
		if got := r.FormValue("rarity"); got != "epic" {
			t.Errorf("rarity = %q, want epic", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, newAuthedStore(t, "tok"))
	err := c.CreateCard(context.Background(), CreateCardRequest{
		Title: "Penny Black", Description: "First stamp", Category: "uk", Rarity: "epic",
		CollectionID: 42,
		Image:        domain.Upload{Name: "p.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})
	if err != nil {
		t.Fatalf("CreateCard() error: %v", err)
	}
}

func TestListCards(t *testing.T) {
	t.Run("with collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("collectionId") != "3" {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"success":    true,
				"cards":      []map[string]any{{"id": 1, "title": "A", "rarity": "rare", "collectionId": 3}},
				"collection": map[string]any{"id": 3, "title": "Coins"},
			})
		}))
		defer srv.Close()

		c := New(srv.URL, newAuthedStore(t, "tok"))
		res, err := c.ListCards(context.Background(), 3)
		if err != nil {
			t.Fatalf("ListCards() error: %v", err)
		}
		if res.Collection.Title != "Coins" {
			t.Errorf("Collection.Title = %q, want Coins", res.Collection.Title)
		}
		if len(res.Cards) != 1 || res.Cards[0].Rarity != "rare" {
			t.Errorf("Cards = %+v", res.Cards)
		}
	})

	t.Run("placeholder collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"success": true, "cards": []any{}}) //nolint:errcheck
		}))
		defer srv.Close()

		c := New(srv.URL, newAuthedStore(t, "tok"))
		res, err := c.ListCards(context.Background(), 9)
		if err != nil {
			t.Fatalf("ListCards() error: %v", err)
		}
		if res.Collection.ID != 9 || res.Collection.Title == "" {
			t.Errorf("placeholder = %+v, want id 9 with a title", res.Collection)
		}
		if res.Cards == nil {
			t.Error("Cards should be empty, not nil")
		}
	})
}

func TestImageURL(t *testing.T) {
	c := New("https://api.example.com/", session.NewMemoryStore(), WithImageURL("https://img.example.com/"))
	if got := c.ImageURL("abc.png"); got != "https://img.example.com/api/image/get/abc.png" {
		t.Errorf("ImageURL() = %q", got)
	}
	if got := c.ImageURL("https://cdn.example.com/x.png"); got != "https://cdn.example.com/x.png" {
		t.Errorf("absolute ImageURL() = %q", got)
	}
	if got := c.ImageURL(""); got != "" {
		t.Errorf("empty ImageURL() = %q", got)
	}
}
