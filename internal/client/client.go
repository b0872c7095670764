// Package client talks to the Story Map API. It implements the adventure
// Records and MediaStore interfaces, so the CLI runs the same lifecycle flows
// as the server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"backend-storymap/internal/adventure"
	"backend-storymap/internal/auth"
	"backend-storymap/internal/session"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 30 * time.Second

// APIError is a failed API call. Error returns the server's message
// verbatim; Unwrap maps the status onto the adventure sentinels.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return adventure.ErrSignInRequired
	case http.StatusForbidden:
		return adventure.ErrNotOwner
	case http.StatusNotFound:
		return adventure.ErrNotFound
	case http.StatusConflict:
		return adventure.ErrInFlight
	}
	return nil
}

type savedSession struct {
	User   session.Session    `json:"user"`
	Tokens auth.TokenResponse `json:"tokens"`
}

type Client struct {
	baseURL string
	file    string
	timeout time.Duration
	store   *session.Store

	mu     sync.Mutex
	tokens auth.TokenResponse
}

// New builds a client and restores the session saved in sessionFile, if
// any. An empty sessionFile keeps the session in memory only.
func New(baseURL, sessionFile string) *Client {
	c := &Client{baseURL: baseURL, file: sessionFile, timeout: defaultTimeout}
	var initial *session.Session
	if saved, err := c.load(); err == nil {
		initial = &saved.User
		c.tokens = saved.Tokens
	}
	c.store = session.NewStore(initial)
	return c
}

// Session is the store views subscribe to for auth-state changes.
func (c *Client) Session() *session.Store {
	return c.store
}

func (c *Client) Viewer() *session.Session {
	return c.store.Current()
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*session.Session, error) {
	var resp auth.AuthResponse
	if err := c.do(ctx, fiber.MethodPost, path, auth.Credentials{Email: email, Password: password}, &resp, false); err != nil {
		return nil, err
	}
	s := &session.Session{UserID: resp.User.ID, Email: resp.User.Email}
	if err := c.remember(s, resp.Tokens); err != nil {
		return nil, err
	}
	return s, nil
}

// SignOut revokes the refresh token and always forgets the local session.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.tokens.RefreshToken
	c.mu.Unlock()

	var err error
	if refresh != "" {
		err = c.do(ctx, fiber.MethodPost, "/auth/logout", auth.RefreshRequest{RefreshToken: refresh}, nil, false)
	}
	if ferr := c.forget(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// Me asks the identity provider who the current token belongs to.
func (c *Client) Me(ctx context.Context) (*session.Session, error) {
	var s session.Session
	if err := c.do(ctx, fiber.MethodGet, "/auth/me", nil, &s, true); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) remember(s *session.Session, tokens auth.TokenResponse) error {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
	c.store.Set(s)
	return c.save(savedSession{User: *s, Tokens: tokens})
}

func (c *Client) forget() error {
	c.mu.Lock()
	c.tokens = auth.TokenResponse{}
	c.mu.Unlock()
	c.store.Set(nil)
	if c.file == "" {
		return nil
	}
	if err := os.Remove(c.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Client) load() (savedSession, error) {
	var saved savedSession
	if c.file == "" {
		return saved, os.ErrNotExist
	}
	raw, err := os.ReadFile(c.file)
	if err != nil {
		return saved, err
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		return saved, err
	}
	if saved.User.UserID == "" {
		return saved, os.ErrNotExist
	}
	return saved, nil
}

func (c *Client) save(saved savedSession) error {
	if c.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return os.WriteFile(c.file, raw, 0o600)
}

// refresh swaps the refresh token for a new pair. It reports whether the
// retry is worth making.
func (c *Client) refresh(ctx context.Context) bool {
	c.mu.Lock()
	token := c.tokens.RefreshToken
	c.mu.Unlock()
	if token == "" {
		return false
	}

	var tokens auth.TokenResponse
	if err := c.do(ctx, fiber.MethodPost, "/auth/refresh", auth.RefreshRequest{RefreshToken: token}, &tokens, false); err != nil {
		return false
	}
	current := c.store.Current()
	if current == nil {
		return false
	}
	return c.remember(current, tokens) == nil
}

func (c *Client) agent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return fiber.Post(url)
	case fiber.MethodPut:
		return fiber.Put(url)
	case fiber.MethodDelete:
		return fiber.Delete(url)
	default:
		return fiber.Get(url)
	}
}

// do sends one JSON request. Authenticated calls retry once after a token
// refresh when the access token has expired.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	code, raw, err := c.send(ctx, method, path, authed, func(a *fiber.Agent) {
		if body != nil {
			a.JSON(body)
		}
	})
	if err != nil {
		return err
	}
	if code == http.StatusUnauthorized && authed && c.refresh(ctx) {
		code, raw, err = c.send(ctx, method, path, authed, func(a *fiber.Agent) {
			if body != nil {
				a.JSON(body)
			}
		})
		if err != nil {
			return err
		}
	}
	return decode(code, raw, out)
}

func (c *Client) send(ctx context.Context, method, path string, authed bool, build func(*fiber.Agent)) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	a := c.agent(method, c.baseURL+path).Timeout(timeout)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, nil, err
	}
	// Ids are path-escaped; keep the client from decoding them again.
	a.HostClient.DisablePathNormalizing = true
	if authed {
		c.mu.Lock()
		token := c.tokens.AccessToken
		c.mu.Unlock()
		if token != "" {
			a.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
	}
	build(a)

	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Join(errs...)
	}
	return code, raw, nil
}

func decode(code int, raw []byte, out any) error {
	if code < 200 || code >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &failure); err != nil || failure.Error == "" {
			failure.Error = fmt.Sprintf("request failed: status %d", code)
		}
		return &APIError{Status: code, Message: failure.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
