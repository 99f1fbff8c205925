package client

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

	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// sessionCookie must match the cookie name used by the server
const sessionCookie = "UNDOCUMENTED_DEMO_SESSION"

// APIError is returned for every response with a status code >= 400.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("api error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, strings.Join(e.Messages, ", "))
}

// Client talks to the REST API. It keeps the session cookie and the token of
// the last login or registration, so consecutive calls act in one session as
// the same user. It is safe for concurrent use.
type Client struct {
	config  common.ClientConfig
	baseURL *url.URL
	http    *http.Client

	mu      sync.Mutex
	session string
	token   string
}

// NewClient creates a client for the server at config.Endpoint.
func NewClient(config common.ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.Endpoint, "/"))
	if err != nil {
		return nil, err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: expected an http(s) url", config.Endpoint)
	}

	return &Client{
		config:  config,
		baseURL: base,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecond) * time.Second,
		},
		session: config.Session,
		token:   config.Token,
	}, nil
}

// Session returns the current session id, empty if none was assigned yet.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Token returns the current auth token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// do sends a request with an optional JSON body and decodes the response
// into out (if not nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}

	target := *c.baseURL
	target.Path += path
	target.RawQuery = query.Encode()

	// only reads are repeated
	attempts := 1
	if method == http.MethodGet && c.config.RetryCount > 1 {
		attempts = c.config.RetryCount
	}

	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < attempts; i++ {
		var req *http.Request
		if req, err = c.newRequest(ctx, method, target.String(), body); err != nil {
			return err
		}
		if resp, err = c.http.Do(req); err == nil {
			break
		}
		Logger.Debugf("%s %s failed (attempt %d/%d): %v", method, path, i+1, attempts, err)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	c.keepSession(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	return req, nil
}

// keepSession stores a session id assigned by the server
func (c *Client) keepSession(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			c.mu.Lock()
			c.session = cookie.Value
			c.mu.Unlock()
		}
	}
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Errors struct {
			Body []string `json:"body"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Messages = body.Errors.Body
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// --------------------------------------------------------------------------
// API
// --------------------------------------------------------------------------

// Register creates a user and uses its token for further requests.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	in := map[string]any{"user": map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}}
	return c.authenticate(ctx, "/users", in)
}

// Login logs in and uses the new token for further requests.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	in := map[string]any{"user": map[string]string{
		"email":    email,
		"password": password,
	}}
	return c.authenticate(ctx, "/users/login", in)
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.User.Token
	c.mu.Unlock()
	return &out.User, nil
}

// CurrentUser returns the logged in user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Profile returns the profile of username.
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var out struct {
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// ListArticles returns one page of articles matching filter.
func (c *Client) ListArticles(ctx context.Context, filter ArticleFilter) (*ArticleList, error) {
	out := &ArticleList{}
	if err := c.do(ctx, http.MethodGet, "/articles", filter.query(), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tags returns all tags in use.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

type User struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type Article struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Body           string   `json:"body"`
	TagList        []string `json:"tagList"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	Favorited      bool     `json:"favorited"`
	FavoritesCount int      `json:"favoritesCount"`
	Author         Profile  `json:"author"`
}

type ArticleList struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

// ArticleFilter selects articles. Zero values are not sent.
type ArticleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

func (f ArticleFilter) query() url.Values {
	q := url.Values{}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Author != "" {
		q.Set("author", f.Author)
	}
	if f.Favorited != "" {
		q.Set("favorited", f.Favorited)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}
