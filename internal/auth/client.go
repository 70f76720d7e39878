package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/shiki/internal/kv"
	"github.com/five82/shiki/internal/logging"
)

// User is the signed-in identity. Every field may be empty.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Session is what is persisted between runs.
type Session struct {
	User         User      `json:"user"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionKey is the kv key holding the persisted session.
const SessionKey = "auth_session"

const (
	DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
	requestTimeout = 10 * time.Second
	requestURI     = "http://localhost"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Store      kv.Store
	Logger     *log.Logger
	HTTPClient *http.Client
}

// Client signs users in against an Identity Toolkit compatible REST API and
// keeps the current session.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	store   kv.Store
	logger  *log.Logger

	mu      sync.RWMutex
	session *Session

	subMu   sync.Mutex
	subs    map[int]func(*User)
	nextSub int
}

// NewClient builds a Client. A nil Store keeps the session in memory only.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("parse auth base url %q: invalid", opts.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	store := opts.Store
	if store == nil {
		store = kv.NewMemory(nil)
	}
	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(opts.APIKey),
		http:    httpClient,
		store:   store,
		logger:  logging.Component(opts.Logger, "auth"),
		subs:    make(map[int]func(*User)),
	}, nil
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Restore loads a persisted session. A missing or unreadable session leaves
// the client signed out.
func (c *Client) Restore(ctx context.Context) error {
	raw, ok, err := c.store.Get(ctx, SessionKey)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.User.UID == "" {
		c.logger.Warn("discarding unreadable session", "err", err)
		return nil
	}
	c.setSession(&s)
	c.logger.Debug("session restored", "uid", s.User.UID)
	return nil
}

// Current returns a copy of the signed-in user, or nil.
func (c *Client) Current() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

// Subscribe registers fn to be called with the user after every sign-in or
// sign-out, and once immediately with the current user. The returned
// function unregisters it.
func (c *Client) Subscribe(fn func(*User)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	fn(c.Current())
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// SignInWithEmail signs in with an email and password.
func (c *Client) SignInWithEmail(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password, false); err != nil {
		return nil, err
	}
	var resp tokenResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, resp)
}

// SignUpWithEmail creates an account and signs it in. A non-empty displayName
// is saved on the new profile.
func (c *Client) SignUpWithEmail(ctx context.Context, email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password, true); err != nil {
		return nil, err
	}
	var resp tokenResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(displayName); name != "" {
		var upd tokenResponse
		err := c.post(ctx, "accounts:update", map[string]any{
			"idToken":           resp.IDToken,
			"displayName":       name,
			"returnSecureToken": true,
		}, &upd)
		if err != nil {
			c.logger.Warn("failed to set display name", "err", err)
		} else {
			resp.DisplayName = name
			if upd.IDToken != "" {
				resp.IDToken, resp.RefreshToken, resp.ExpiresIn = upd.IDToken, upd.RefreshToken, upd.ExpiresIn
			}
		}
	}
	return c.establish(ctx, resp)
}

// SignInWithCredential exchanges an identity provider's ID token, such as a
// Google id_token, for a session.
func (c *Client) SignInWithCredential(ctx context.Context, providerID, idToken string) (*User, error) {
	providerID = strings.TrimSpace(providerID)
	idToken = strings.TrimSpace(idToken)
	if providerID == "" || idToken == "" {
		return nil, &Error{Code: "MISSING_CREDENTIAL", Message: "A provider and ID token are required."}
	}
	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", providerID)
	var resp tokenResponse
	err := c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          requestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, resp)
}

// SignOut clears the session. Tracked lists are not touched.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Current() == nil {
		return ErrNotSignedIn
	}
	c.setSession(nil)
	if err := c.store.Set(ctx, SessionKey, ""); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type idClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

func (c *Client) establish(ctx context.Context, resp tokenResponse) (*User, error) {
	s := &Session{
		User: User{
			UID:         resp.LocalID,
			DisplayName: resp.DisplayName,
			Email:       resp.Email,
			PhotoURL:    resp.PhotoURL,
		},
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil {
		s.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}
	fillFromToken(s)
	if s.User.UID == "" {
		return nil, &Error{Code: "MISSING_USER", Message: "Sign-in response did not include a user."}
	}

	c.setSession(s)
	if payload, err := json.Marshal(s); err == nil {
		if err := c.store.Set(ctx, SessionKey, string(payload)); err != nil {
			c.logger.Error("failed to persist session", "err", err)
		}
	}
	c.logger.Info("signed in", "uid", s.User.UID)
	u := s.User
	return &u, nil
}

// fillFromToken copies display fields from the ID token's claims where the
// response left them empty. The token is not verified; nothing here is used
// for authorization.
func fillFromToken(s *Session) {
	if s.IDToken == "" {
		return
	}
	var claims idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.IDToken, &claims); err != nil {
		return
	}
	if s.User.UID == "" {
		s.User.UID = claims.Subject
	}
	if s.User.DisplayName == "" {
		s.User.DisplayName = claims.Name
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.User.PhotoURL == "" {
		s.User.PhotoURL = claims.Picture
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	user := c.Current()
	c.subMu.Lock()
	fns := make([]func(*User), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, method string, body any, dest any) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	reqURL := c.baseURL.JoinPath(method)
	reqURL.RawQuery = url.Values{"key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error.Message != "" {
			return providerError(er.Error.Message)
		}
		return fmt.Errorf("auth %s returned status %d", method, resp.StatusCode)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUserError reports whether err carries a message meant for the user.
func IsUserError(err error) bool {
	var ae *Error
	return errors.As(err, &ae) || errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrNotSignedIn)
}
