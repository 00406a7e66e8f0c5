package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/collectorscorner/corner/pkg/domain"
)

// SessionStore is where the client reads the bearer token from and
// where Login saves the new session.
type SessionStore interface {
	Save(ctx context.Context, s domain.Session) error
	Current(ctx context.Context) (domain.Session, bool, error)
	Clear(ctx context.Context) error
}

// Logger receives one debug line per round trip.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 10 << 20

// Client is the Collectors Corner API client.
type Client struct {
	baseURL    string
	imageURL   string
	sessions   SessionStore
	httpClient *http.Client
	log        Logger
}

// Option configures a Client.
type Option func(*Client)

// WithImageURL sets the base URL of the image service used by ImageURL.
func WithImageURL(u string) Option {
	return func(c *Client) { c.imageURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new API client. sessions supplies the bearer token.
func New(baseURL string, sessions SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.imageURL == "" {
		c.imageURL = c.baseURL
	}
	return c
}

// --- Auth ---

// LoginResponse is the payload of /api/auth/login.
type LoginResponse struct {
	Success             bool   `json:"success"`
	AccessToken         string `json:"accessToken"`
	AccessTokenExpires  string `json:"accessTokenExpires"`
	RefreshToken        string `json:"refreshToken"`
	RefreshTokenExpires string `json:"refreshTokenExpires"`
}

// Login authenticates and saves the resulting session to the store.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var resp LoginResponse
	body := map[string]string{"Username": username, "Password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", body, false, &resp); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && apiErr.Message == "" {
			apiErr.Message = MsgWrongCredentials
		}
		return domain.Session{}, fmt.Errorf("client.Login: %w", err)
	}
	if resp.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("client.Login: %w", &Error{Kind: KindApplication, Message: "no access token in response"})
	}

	sess := c.sessionFromLogin(resp)
	if err := c.sessions.Save(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("client.Login: save session: %w", err)
	}
	return sess, nil
}

// sessionFromLogin builds the session to store. The server has already
// accepted the credentials, so an expiry it sends in an unknown format is
// treated as unknown rather than failing the login.
func (c *Client) sessionFromLogin(resp LoginResponse) domain.Session {
	accessExp, err := domain.ParseExpiry(resp.AccessTokenExpires)
	if err != nil {
		c.log.Debug("ignoring access token expiry", "err", err)
	}
	if accessExp.IsZero() {
		accessExp = tokenExpiry(resp.AccessToken)
	}
	refreshExp, err := domain.ParseExpiry(resp.RefreshTokenExpires)
	if err != nil {
		c.log.Debug("ignoring refresh token expiry", "err", err)
	}
	return domain.Session{
		AccessToken:         resp.AccessToken,
		AccessTokenExpires:  accessExp,
		RefreshToken:        resp.RefreshToken,
		RefreshTokenExpires: refreshExp,
	}
}

// Logout forgets the stored session. The backend keeps no logout endpoint.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// RegisterResponse is the payload of /api/auth/register.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Register creates a new account. It does not sign in.
func (c *Client) Register(ctx context.Context, username, email, password string) (*RegisterResponse, error) {
	var resp RegisterResponse
	body := map[string]string{"Username": username, "Email": email, "Password": password}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", body, false, &resp); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &resp, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"Email": email}, false, nil); err != nil {
		return fmt.Errorf("client.ForgotPassword: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using a mailed reset token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) error {
	body := map[string]string{
		"ResetToken":      resetToken,
		"NewPassword":     newPassword,
		"ConfirmPassword": confirmPassword,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/reset-password", body, false, nil); err != nil {
		return fmt.Errorf("client.ResetPassword: %w", err)
	}
	return nil
}

// --- Account ---

type userResponse struct {
	Username    string              `json:"username"`
	Nickname    string              `json:"nickname"`
	Email       string              `json:"email"`
	AvatarURL   string              `json:"avatarUrl"`
	CreatedAt   string              `json:"createdAt"`
	Collections []domain.Collection `json:"collections"`
}

// GetUser returns the signed-in user's profile and collections.
func (c *Client) GetUser(ctx context.Context) (*domain.UserProfile, error) {
	var resp userResponse
	if err := c.get(ctx, "/api/account/get-user", &resp); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	name := resp.Nickname
	if name == "" {
		name = resp.Username
	}
	// An unreadable createdAt only affects display.
	created, _ := domain.ParseExpiry(resp.CreatedAt) //nolint:errcheck
	return &domain.UserProfile{
		Username:    name,
		Email:       resp.Email,
		AvatarRef:   resp.AvatarURL,
		CreatedAt:   created,
		Collections: resp.Collections,
	}, nil
}

// UpdateNickname changes the display name.
func (c *Client) UpdateNickname(ctx context.Context, nickname string) error {
	if err := c.doRequest(ctx, http.MethodPut, "/api/account/update-nickname", map[string]string{"Nickname": nickname}, true, nil); err != nil {
		return fmt.Errorf("client.UpdateNickname: %w", err)
	}
	return nil
}

// UpdateEmail changes the account email.
func (c *Client) UpdateEmail(ctx context.Context, email string) error {
	if err := c.doRequest(ctx, http.MethodPut, "/api/account/update-email", map[string]string{"Email": email}, true, nil); err != nil {
		return fmt.Errorf("client.UpdateEmail: %w", err)
	}
	return nil
}

// UpdateAvatar uploads a new avatar image.
func (c *Client) UpdateAvatar(ctx context.Context, image domain.Upload) error {
	body := &multipartBody{fileField: "Image", file: &image}
	if err := c.doRequest(ctx, http.MethodPut, "/api/account/update-avatar", body, true, nil); err != nil {
		return fmt.Errorf("client.UpdateAvatar: %w", err)
	}
	return nil
}

// --- Collections & cards ---

// CreateCollectionRequest is the payload for creating a collection.
type CreateCollectionRequest struct {
	Title       string
	Description string
	Category    string
	IsPublic    bool
	Image       domain.Upload
}

// CreateCollection creates a new collection.
func (c *Client) CreateCollection(ctx context.Context, req CreateCollectionRequest) error {
	body := &multipartBody{
		fields: []formField{
			{"title", req.Title},
			{"description", req.Description},
			{"category", req.Category},
			{"ispublic", strconv.FormatBool(req.IsPublic)},
		},
		fileField: "image",
		file:      &req.Image,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/collection/create", body, true, nil); err != nil {
		return fmt.Errorf("client.CreateCollection: %w", err)
	}
	return nil
}

// CreateCardRequest is the payload for adding a card to a collection.
type CreateCardRequest struct {
	Title        string
	Description  string
	Category     string
	Rarity       string
	CollectionID int64
	Image        domain.Upload
}

// CreateCard adds a card to a collection.
func (c *Client) CreateCard(ctx context.Context, req CreateCardRequest) error {
	body := &multipartBody{
		fields: []formField{
			{"title", req.Title},
			{"description", req.Description},
			{"category", req.Category},
			{"rarity", req.Rarity},
			{"collectionId", strconv.FormatInt(req.CollectionID, 10)},
		},
		fileField: "image",
		file:      &req.Image,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/card/create", body, true, nil); err != nil {
		return fmt.Errorf("client.CreateCard: %w", err)
	}
	return nil
}

// CollectionCards is the response of ListCards.
type CollectionCards struct {
	Cards      []domain.Card
	Collection domain.Collection
}

// ListCards fetches the cards of a collection together with the collection itself.
// When the backend omits the collection, a placeholder is returned in its place.
func (c *Client) ListCards(ctx context.Context, collectionID int64) (*CollectionCards, error) {
	params := url.Values{}
	params.Set("collectionId", strconv.FormatInt(collectionID, 10))

	var resp struct {
		Cards      []domain.Card      `json:"cards"`
		Collection *domain.Collection `json:"collection"`
	}
	if err := c.get(ctx, "/api/card/get?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("client.ListCards: %w", err)
	}

	out := &CollectionCards{Cards: resp.Cards}
	if out.Cards == nil {
		out.Cards = []domain.Card{}
	}
	if resp.Collection != nil {
		out.Collection = *resp.Collection
	} else {
		out.Collection = domain.PlaceholderCollection(collectionID, len(out.Cards))
	}
	return out, nil
}

// ImageURL resolves an image reference to a fetchable URL.
func (c *Client) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.imageURL + "/api/image/get/" + url.PathEscape(ref)
}

// --- transport ---

type formField struct {
	name, value string
}

// multipartBody is a form with at most one file field.
type multipartBody struct {
	fields    []formField
	fileField string
	file      *domain.Upload
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (b *multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range b.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if b.file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(b.fileField), quoteEscaper.Replace(b.file.Name)))
		ct := b.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(b.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// envelope is the part of every response the classifier looks at.
type envelope struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Title   string              `json:"title"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, true, out)
}

// doRequest performs one round trip. auth controls whether the bearer
// token is attached; anonymous endpoints pass false.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var (
		reqBody     io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *multipartBody:
		r, ct, err := b.encode()
		if err != nil {
			return fmt.Errorf("encode multipart: %w", err)
		}
		reqBody, contentType = r, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if auth {
		sess, ok, err := c.sessions.Current(ctx)
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		if ok && sess.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	c.log.Debug("api request", "method", method, "path", path, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	return c.classify(ctx, resp.StatusCode, respBody, auth, out)
}

// classify maps a response to nil or an *Error. A 401 only means the session
// expired when the request was sent on its behalf; anonymous calls get an
// application error instead and leave the store alone.
func (c *Client) classify(ctx context.Context, status int, body []byte, auth bool, out any) error {
	var env envelope
	if len(bytes.TrimSpace(body)) > 0 {
		// Non-JSON bodies (proxy error pages) simply leave env empty.
		_ = json.Unmarshal(body, &env) //nolint:errcheck
	}

	switch {
	case status >= 200 && status < 300:
		if env.Success != nil && !*env.Success {
			return &Error{Kind: KindApplication, StatusCode: status, Message: env.Message}
		}
		if out != nil && len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil

	case status == http.StatusUnauthorized && !auth:
		return &Error{Kind: KindApplication, StatusCode: status, Message: env.Message}

	case status == http.StatusUnauthorized:
		if err := c.sessions.Clear(ctx); err != nil {
			c.log.Debug("clear session after 401 failed", "err", err)
		}
		return &Error{Kind: KindAuthExpired, StatusCode: status, Message: env.Message}

	case status == http.StatusBadRequest:
		msg := env.Message
		if msg == "" {
			msg = env.Title
		}
		return &Error{Kind: KindValidation, StatusCode: status, Message: msg, Fields: flattenFieldErrors(env.Errors)}

	default:
		return &Error{Kind: KindServer, StatusCode: status, Message: env.Message}
	}
}

// flattenFieldErrors keeps the first message per field. The server names
// fields in PascalCase; form keys are camelCase, so only the first rune is
// lowered.
func flattenFieldErrors(errs map[string][]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for field, msgs := range errs {
		if len(msgs) == 0 {
			continue
		}
		out[lowerFirst(field)] = msgs[0]
	}
	return out
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
