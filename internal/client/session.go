package client

import (
	"context"
	"net/http"
	"sort"
)

// Identity is who the client is signed in as.
type Identity struct {
	UserID    string
	Email     string
	Anonymous bool
	Role      string
}

type sessionResponse struct {
	Token string `json:"token"`
	User  struct {
		ID        string  `json:"id"`
		Email     *string `json:"email"`
		Anonymous bool    `json:"anonymous"`
		Role      string  `json:"role"`
	} `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInAnonymously starts a session with a fresh anonymous identity.
func (c *Client) SignInAnonymously(ctx context.Context) error {
	return c.startSession(ctx, "/auth/anonymous", nil)
}

// Register creates an email account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.startSession(ctx, "/auth/register", credentials{Email: email, Password: password})
}

// SignIn signs in with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.startSession(ctx, "/auth/login", credentials{Email: email, Password: password})
}

func (c *Client) startSession(ctx context.Context, path string, body interface{}) error {
	var resp sessionResponse
	if err := c.callJSON(ctx, http.MethodPost, path, body, false, &resp); err != nil {
		return err
	}

	id := &Identity{UserID: resp.User.ID, Anonymous: resp.User.Anonymous, Role: resp.User.Role}
	if resp.User.Email != nil {
		id.Email = *resp.User.Email
	}

	c.mu.Lock()
	c.token = resp.Token
	c.identity = id
	c.mu.Unlock()

	c.emit(id)
	return nil
}

// SignOut revokes the token server-side, then forgets it. The local session
// is dropped even when the server cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.callJSON(ctx, http.MethodPost, "/api/v1/auth/logout", nil, true, nil)

	c.mu.Lock()
	c.token = ""
	c.identity = nil
	c.mu.Unlock()

	c.emit(nil)
	return err
}

// CurrentUser returns the signed-in identity or nil.
func (c *Client) CurrentUser() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// OnAuthStateChanged calls fn with the current identity now and after every
// sign-in or sign-out. The returned func removes the listener.
func (c *Client) OnAuthStateChanged(fn func(*Identity)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	fn(c.CurrentUser())

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(id *Identity) {
	c.mu.RLock()
	keys := make([]int, 0, len(c.listeners))
	for k := range c.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(*Identity), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, c.listeners[k])
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		var cp *Identity
		if id != nil {
			v := *id
			cp = &v
		}
		fn(cp)
	}
}
