package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/ValentinKolb/rwKV/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// newTestServer creates a server with cheap password hashing, no origin check
// and no session rate limit. The clock advances one second per call.
func newTestServer(t *testing.T, mutate ...func(*common.ServerConfig)) *Server {
	t.Helper()
	config := common.DefaultServerConfig()
	config.BypassOriginCheck = true
	config.PasswordCost = bcrypt.MinCost
	config.SessionsPerMinute = 0
	for _, m := range mutate {
		m(&config)
	}

	s, err := NewServer(config)
	require.NoError(t, err)
	s.now = steppingClock()
	return s
}

func steppingClock() func() time.Time {
	var (
		mu  sync.Mutex
		now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// testClient keeps the session cookie and the token between requests
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  string
	token   string
	origin  string
	addr    string
}

func newTestClient(t *testing.T, s *Server) *testClient {
	return &testClient{t: t, handler: s.Handler()}
}

func (c *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.cookie})
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	if c.addr != "" {
		req.RemoteAddr = c.addr
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie {
			c.cookie = cookie.Value
		}
	}
	return rec
}

// register registers a user and keeps its token
func (c *testClient) register(username string) userResponse {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-" + username,
	}})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[struct {
		User userResponse `json:"user"`
	}](c.t, rec).User
	c.token = user.Token
	return user
}

func (c *testClient) createArticle(title string, tags ...string) articleResponse {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/articles", map[string]any{"article": map[string]any{
		"title":       title,
		"description": "about " + title,
		"body":        "all about " + title,
		"tagList":     tags,
	}})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[articleEnvelope](c.t, rec).Article
}

// as returns a client in the same session, authenticated with token
func (c *testClient) as(token string) *testClient {
	clone := *c
	clone.token = token
	return &clone
}

type articleEnvelope struct {
	Article articleResponse `json:"article"`
}

type articleList struct {
	Articles      []articleResponse `json:"articles"`
	ArticlesCount int               `json:"articlesCount"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.Equal(t, []string{msg}, decode[errorResponse](t, rec).Errors.Body)
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	config := common.DefaultServerConfig()
	config.BypassOriginCheck = true
	config.MaxSessions = 0
	_, err := NewServer(config)
	assert.Error(t, err)
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

func TestRegisterMintsSession(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)

	user := c.register("alice")
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, store.DefaultImage, user.Image)
	assert.NotEmpty(t, user.Token)

	require.NotEmpty(t, c.cookie)
	assert.True(t, s.Container().Contains(c.cookie))

	rec := c.do(http.MethodGet, "/user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[struct {
		User userResponse `json:"user"`
	}](t, rec).User.Username)
}

func TestRegisterKeepsExistingSession(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("alice")
	cookie := c.cookie

	c.token = ""
	c.register("bob")
	assert.Equal(t, cookie, c.cookie)
	assert.Equal(t, 1, s.Container().Len())
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)

	rec := c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{"username": "alice"}})
	assertError(t, rec, http.StatusUnprocessableEntity, "Email, username and password are required")

	rec = c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{
		"username": strings.Repeat("a", 61),
		"email":    "a@example.com",
		"password": "pw",
	}})
	assertError(t, rec, http.StatusUnprocessableEntity,
		"Email, username and password are expected as strings of length less than 100, 60, and 60, respectively")

	rec = c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{
		"username": 42,
		"email":    "a@example.com",
		"password": "pw",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	c.register("alice")
	rec = c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{
		"username": "alice",
		"email":    "other@example.com",
		"password": "pw",
	}})
	assertError(t, rec, http.StatusConflict, "User already exists")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	first := c.register("alice")

	rec := c.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{"email": "alice@example.com"}})
	assertError(t, rec, http.StatusUnprocessableEntity, "Email and password are required")

	rec = c.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	}})
	assertError(t, rec, http.StatusUnauthorized, "Invalid credentials")

	rec = c.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{
		"email":    "alice@example.com",
		"password": "secret-alice",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[struct {
		User userResponse `json:"user"`
	}](t, rec).User
	assert.NotEqual(t, first.Token, second.Token)

	// only the latest token is accepted
	assertError(t, c.as(first.Token).do(http.MethodGet, "/user", nil), http.StatusUnauthorized, "Unauthorized")
	assert.Equal(t, http.StatusOK, c.as(second.Token).do(http.MethodGet, "/user", nil).Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	alice := newTestClient(t, s)
	alice.register("alice")
	alice.createArticle("Private Thoughts")

	other := newTestClient(t, s)
	rec := other.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{
		"email":    "alice@example.com",
		"password": "secret-alice",
	}})
	assertError(t, rec, http.StatusUnauthorized, "Invalid credentials")
	assert.NotEqual(t, alice.cookie, other.cookie)

	// the token of another session is unknown here
	rec = other.as(alice.token).do(http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	list := decode[articleList](t, other.do(http.MethodGet, "/articles", nil))
	assert.Equal(t, 0, list.ArticlesCount)
	list = decode[articleList](t, alice.do(http.MethodGet, "/articles", nil))
	assert.Equal(t, 1, list.ArticlesCount)
}

func TestDisabledIsolationSharesData(t *testing.T) {
	s := newTestServer(t, func(c *common.ServerConfig) { c.DisableIsolation = true })
	alice := newTestClient(t, s)
	alice.register("alice")

	other := newTestClient(t, s)
	rec := other.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{
		"email":    "alice@example.com",
		"password": "secret-alice",
	}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("bob")
	c.token = ""
	c.register("alice")

	rec := c.do(http.MethodPut, "/user", map[string]any{"user": map[string]any{"bio": "hello", "image": "https://img"}})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[struct {
		User userResponse `json:"user"`
	}](t, rec).User
	assert.Equal(t, "hello", user.Bio)
	assert.Equal(t, "https://img", user.Image)

	rec = c.do(http.MethodPut, "/user", map[string]any{"user": map[string]any{"bio": strings.Repeat("x", 401)}})
	assertError(t, rec, http.StatusUnprocessableEntity, "bio is an optional string of length <= 400")

	rec = c.do(http.MethodPut, "/user", map[string]any{"user": map[string]any{"username": "bob"}})
	assertError(t, rec, http.StatusConflict, "Username already taken")

	rec = c.do(http.MethodPut, "/user", map[string]any{"user": map[string]any{"password": "new-secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{
		"email":    "alice@example.com",
		"password": "new-secret",
	}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --------------------------------------------------------------------------
// Security
// --------------------------------------------------------------------------

func TestOriginCheck(t *testing.T) {
	s := newTestServer(t, func(c *common.ServerConfig) {
		c.BypassOriginCheck = false
		c.AllowedOrigins = []string{"https://app.example.com"}
	})
	c := newTestClient(t, s)

	rec := c.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{}})
	assertError(t, rec, http.StatusForbidden, "Origin header required for CSRF protection")
	assert.Empty(t, c.cookie)

	c.origin = "https://evil.example.com"
	rec = c.do(http.MethodPost, "/users/login", map[string]any{"user": map[string]any{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c.origin = "https://app.example.com"
	c.register("alice")
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)

	assertError(t, c.do(http.MethodGet, "/user", nil), http.StatusUnauthorized, "Unauthorized")
	assertError(t, c.do(http.MethodGet, "/articles/feed", nil), http.StatusUnauthorized, "Unauthorized")

	// an invalid token on a public route is an anonymous request
	c.token = "not-a-token"
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/articles", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/articles", nil).Code)
}

func TestSessionRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *common.ServerConfig) {
		c.SessionsPerMinute = 1
		c.SessionBurst = 1
	})

	first := newTestClient(t, s)
	first.register("alice")

	second := newTestClient(t, s)
	rec := second.do(http.MethodPost, "/users", map[string]any{"user": map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "pw",
	}})
	assertError(t, rec, http.StatusTooManyRequests, "Too many new sessions")
	assert.Equal(t, 1, s.Container().Len())

	// existing sessions are not limited
	assert.Equal(t, http.StatusOK, first.do(http.MethodGet, "/tags", nil).Code)

	// another client has its own budget
	third := newTestClient(t, s)
	third.addr = "198.51.100.7:4000"
	third.register("carol")
}

func TestOversizedCookieIsIgnored(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.cookie = strings.Repeat("x", 65)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/tags", nil).Code)
	assert.Equal(t, 0, s.Container().Len())
}

// --------------------------------------------------------------------------
// Profiles
// --------------------------------------------------------------------------

func TestProfilesAndFollow(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	alice := c.register("alice")
	c.token = ""
	bob := c.register("bob")

	type envelope struct {
		Profile profileResponse `json:"profile"`
	}

	rec := c.do(http.MethodGet, "/profiles/nobody", nil)
	assertError(t, rec, http.StatusNotFound, "Profile not found")

	rec = c.do(http.MethodPost, "/profiles/bob/follow", nil)
	assertError(t, rec, http.StatusUnprocessableEntity, "Cannot follow yourself")

	rec = c.do(http.MethodPost, "/profiles/alice/follow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[envelope](t, rec).Profile.Following)

	rec = c.as(bob.Token).do(http.MethodGet, "/profiles/alice", nil)
	assert.True(t, decode[envelope](t, rec).Profile.Following)
	rec = c.as(alice.Token).do(http.MethodGet, "/profiles/bob", nil)
	assert.False(t, decode[envelope](t, rec).Profile.Following)
	rec = c.as("").do(http.MethodGet, "/profiles/alice", nil)
	assert.False(t, decode[envelope](t, rec).Profile.Following)

	rec = c.do(http.MethodDelete, "/profiles/alice/follow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[envelope](t, rec).Profile.Following)
}

// --------------------------------------------------------------------------
// Articles
// --------------------------------------------------------------------------

func TestArticleLifecycle(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	alice := c.register("alice")

	first := c.createArticle("Hello World", "go", "db")
	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, []string{"db", "go"}, first.TagList)
	assert.Equal(t, "alice", first.Author.Username)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.True(t, strings.HasSuffix(first.CreatedAt, "Z"))

	second := c.createArticle("Hello World!", "go")
	assert.Equal(t, "hello-world-1", second.Slug)

	rec := c.do(http.MethodGet, "/articles/hello-world", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello World", decode[articleEnvelope](t, rec).Article.Title)
	assertError(t, c.do(http.MethodGet, "/articles/missing", nil), http.StatusNotFound, "Article not found")

	// other users may not change the article
	c.token = ""
	c.register("bob")
	rec = c.do(http.MethodPut, "/articles/hello-world", map[string]any{"article": map[string]any{"body": "mine"}})
	assertError(t, rec, http.StatusForbidden, "Forbidden")
	assertError(t, c.do(http.MethodDelete, "/articles/hello-world", nil), http.StatusForbidden, "Forbidden")

	c.token = alice.Token
	rec = c.do(http.MethodPut, "/articles/hello-world", map[string]any{"article": map[string]any{
		"title": "Goodbye World",
		"body":  "changed",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[articleEnvelope](t, rec).Article
	assert.Equal(t, "goodbye-world", updated.Slug)
	assert.Equal(t, "changed", updated.Body)
	assert.Equal(t, first.Description, updated.Description)
	assert.NotEqual(t, updated.CreatedAt, updated.UpdatedAt)

	rec = c.do(http.MethodPut, "/articles/goodbye-world", map[string]any{"article": map[string]any{
		"title": strings.Repeat("t", 101),
	}})
	assertError(t, rec, http.StatusUnprocessableEntity, "title is an optional string of length <= 100")

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/articles/goodbye-world", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/articles/goodbye-world", nil).Code)
}

func TestCreateArticleValidation(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("alice")

	rec := c.do(http.MethodPost, "/articles", map[string]any{"article": map[string]any{"title": "only a title"}})
	assertError(t, rec, http.StatusUnprocessableEntity, "Title, description and body are required")

	rec = c.do(http.MethodPost, "/articles", map[string]any{"article": map[string]any{
		"title":       "t",
		"description": "d",
		"body":        strings.Repeat("b", 3001),
	}})
	assertError(t, rec, http.StatusUnprocessableEntity, "body is an optional string of length <= 3000")

	rec = c.do(http.MethodPost, "/articles", map[string]any{"article": map[string]any{
		"title":       "t",
		"description": "d",
		"body":        "b",
		"tagList":     []string{strings.Repeat("x", 21)},
	}})
	assertError(t, rec, http.StatusUnprocessableEntity, "tagList is an optional list of less than 10 strings of less than 20 chars")
}

func TestListArticles(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	alice := c.register("alice")
	c.createArticle("One", "a")
	c.createArticle("Two", "b")
	c.token = ""
	bob := c.register("bob")
	c.createArticle("Three", "a", "b")

	list := decode[articleList](t, c.do(http.MethodGet, "/articles", nil))
	require.Equal(t, 3, list.ArticlesCount)
	assert.Equal(t, "three", list.Articles[0].Slug)
	assert.Equal(t, "one", list.Articles[2].Slug)

	list = decode[articleList](t, c.do(http.MethodGet, "/articles?tag=a", nil))
	assert.Equal(t, 2, list.ArticlesCount)

	list = decode[articleList](t, c.do(http.MethodGet, "/articles?author=alice", nil))
	assert.Equal(t, 2, list.ArticlesCount)
	list = decode[articleList](t, c.do(http.MethodGet, "/articles?author=nobody", nil))
	assert.Equal(t, 0, list.ArticlesCount)
	assert.NotNil(t, list.Articles)

	list = decode[articleList](t, c.do(http.MethodGet, "/articles?limit=1&offset=1", nil))
	assert.Equal(t, 3, list.ArticlesCount)
	require.Len(t, list.Articles, 1)
	assert.Equal(t, "two", list.Articles[0].Slug)

	list = decode[articleList](t, c.do(http.MethodGet, "/articles?offset=10", nil))
	assert.Equal(t, 3, list.ArticlesCount)
	assert.Empty(t, list.Articles)

	assertError(t, c.do(http.MethodGet, "/articles?limit=-1", nil), http.StatusUnprocessableEntity, "limit must be a non-negative integer")

	// favorites
	rec := c.as(alice.Token).do(http.MethodPost, "/articles/three/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fav := decode[articleEnvelope](t, rec).Article
	assert.True(t, fav.Favorited)
	assert.Equal(t, 1, fav.FavoritesCount)

	list = decode[articleList](t, c.do(http.MethodGet, "/articles?favorited=alice", nil))
	require.Equal(t, 1, list.ArticlesCount)
	assert.Equal(t, "three", list.Articles[0].Slug)
	assert.False(t, list.Articles[0].Favorited)
	assert.Equal(t, 1, list.Articles[0].FavoritesCount)

	rec = c.as(alice.Token).do(http.MethodDelete, "/articles/three/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[articleEnvelope](t, rec).Article.FavoritesCount)

	// feed
	list = decode[articleList](t, c.as(bob.Token).do(http.MethodGet, "/articles/feed", nil))
	assert.Equal(t, 0, list.ArticlesCount)
	require.Equal(t, http.StatusOK, c.as(bob.Token).do(http.MethodPost, "/profiles/alice/follow", nil).Code)
	list = decode[articleList](t, c.as(bob.Token).do(http.MethodGet, "/articles/feed", nil))
	require.Equal(t, 2, list.ArticlesCount)
	assert.Equal(t, "two", list.Articles[0].Slug)
	assert.True(t, list.Articles[0].Author.Following)
}

func TestTags(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("alice")
	c.createArticle("One", "go", "api")
	c.createArticle("Two", "go")

	rec := c.do(http.MethodGet, "/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "go"}, decode[struct {
		Tags []string `json:"tags"`
	}](t, rec).Tags)
}

func TestEvictedAuthor(t *testing.T) {
	s := newTestServer(t, func(c *common.ServerConfig) { c.Limits.Users = 1 })
	c := newTestClient(t, s)
	c.register("alice")
	c.createArticle("Orphan")

	// registering bob evicts alice
	c.token = ""
	c.register("bob")

	list := decode[articleList](t, c.do(http.MethodGet, "/articles", nil))
	require.Equal(t, 1, list.ArticlesCount)
	assert.Equal(t, "", list.Articles[0].Author.Username)
	assert.Equal(t, store.DefaultImage, list.Articles[0].Author.Image)
}

// --------------------------------------------------------------------------
// Comments
// --------------------------------------------------------------------------

func TestComments(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	alice := c.register("alice")
	c.createArticle("Discuss")
	c.token = ""
	bob := c.register("bob")
	c.token = ""
	carol := c.register("carol")

	type commentEnvelope struct {
		Comment commentResponse `json:"comment"`
	}

	rec := c.as(bob.Token).do(http.MethodPost, "/articles/discuss/comments", map[string]any{"comment": map[string]any{}})
	assertError(t, rec, http.StatusUnprocessableEntity, "Body is required")
	rec = c.as(bob.Token).do(http.MethodPost, "/articles/discuss/comments", map[string]any{"comment": map[string]any{
		"body": strings.Repeat("c", 301),
	}})
	assertError(t, rec, http.StatusUnprocessableEntity, "Body is a string of less than 300 chars")

	rec = c.as(bob.Token).do(http.MethodPost, "/articles/discuss/comments", map[string]any{"comment": map[string]any{"body": "first"}})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[commentEnvelope](t, rec).Comment
	assert.Equal(t, "1", first.ID.String())
	assert.Equal(t, "bob", first.Author.Username)

	rec = c.as(carol.Token).do(http.MethodPost, "/articles/discuss/comments", map[string]any{"comment": map[string]any{"body": "second"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.as("").do(http.MethodGet, "/articles/discuss/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[struct {
		Comments []commentResponse `json:"comments"`
	}](t, rec).Comments
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Body)
	assert.Equal(t, "first", comments[1].Body)

	// carol may not delete the comment of bob, alice owns the article
	assertError(t, c.as(carol.Token).do(http.MethodDelete, "/articles/discuss/comments/1", nil), http.StatusForbidden, "Forbidden")
	assert.Equal(t, http.StatusNoContent, c.as(alice.Token).do(http.MethodDelete, "/articles/discuss/comments/1", nil).Code)
	assertError(t, c.as(bob.Token).do(http.MethodDelete, "/articles/discuss/comments/1", nil), http.StatusNotFound, "Comment not found")
	assertError(t, c.as(bob.Token).do(http.MethodDelete, "/articles/discuss/comments/abc", nil), http.StatusNotFound, "Comment not found")

	// the comment author can delete as well
	assert.Equal(t, http.StatusNoContent, c.as(carol.Token).do(http.MethodDelete, "/articles/discuss/comments/2", nil).Code)
}

func TestDeleteArticleRemovesComments(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("alice")
	c.createArticle("Short Lived")
	rec := c.do(http.MethodPost, "/articles/short-lived/comments", map[string]any{"comment": map[string]any{"body": "hi"}})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/articles/short-lived", nil).Code)

	b, err := s.Container().GetOrCreate(c.cookie)
	require.NoError(t, err)
	b.Lock()
	defer b.Unlock()
	assert.Equal(t, 0, b.Comments.Len())
}

// --------------------------------------------------------------------------
// Operational endpoints
// --------------------------------------------------------------------------

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	assertError(t, c.do(http.MethodGet, "/nope", nil), http.StatusNotFound, "Not found")
	assertError(t, c.do(http.MethodPatch, "/articles", nil), http.StatusNotFound, "Not found")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)
	c.register("alice")

	rec := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = c.do(http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[store.Stats](t, rec)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, uint64(1), stats.Created)

	rec = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "rwkv_sessions 1")
	assert.Contains(t, body, "rwkv_sessions_created_total 1")
	assert.Contains(t, body, `rwkv_http_requests_total{method="POST",route="/users",code="201"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/articles", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
