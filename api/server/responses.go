package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ValentinKolb/rwKV/lib/store"
)

// timeFormat is ISO 8601 in UTC with millisecond precision.
const timeFormat = "2006-01-02T15:04:05.000Z"

// maxBodyBytes limits the size of request bodies.
const maxBodyBytes = 1 << 20

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// --------------------------------------------------------------------------
// Response bodies
// --------------------------------------------------------------------------

type userResponse struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type profileResponse struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type articleResponse struct {
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Body           string          `json:"body"`
	TagList        []string        `json:"tagList"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Favorited      bool            `json:"favorited"`
	FavoritesCount int             `json:"favoritesCount"`
	Author         profileResponse `json:"author"`
}

type commentResponse struct {
	ID        json.Number     `json:"id"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Body      string          `json:"body"`
	Author    profileResponse `json:"author"`
}

type errorResponse struct {
	Errors struct {
		Body []string `json:"body"`
	} `json:"errors"`
}

// --------------------------------------------------------------------------
// Rendering (the caller holds the bundle lock)
// --------------------------------------------------------------------------

func newUserResponse(u *store.User) userResponse {
	return userResponse{
		Email:    u.Email,
		Token:    u.Token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}

// newProfileResponse renders u as seen by viewer (nil for anonymous).
// A nil user (e.g. an evicted author) renders as an empty profile.
func newProfileResponse(b *store.Bundle, u, viewer *store.User) profileResponse {
	if u == nil {
		return profileResponse{Image: store.DefaultImage}
	}
	p := profileResponse{
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
	if viewer != nil {
		p.Following, _ = b.Follows.IsLinked(viewer.ID, u.ID)
	}
	return p
}

// author resolves the author of a record. Reading the author counts as a use.
func author(b *store.Bundle, id string) *store.User {
	u, ok, err := b.Users.Get(id)
	if err != nil || !ok {
		return nil
	}
	return u
}

func newArticleResponse(b *store.Bundle, a *store.Article, viewer *store.User) articleResponse {
	resp := articleResponse{
		Slug:        a.Slug,
		Title:       a.Title,
		Description: a.Description,
		Body:        a.Body,
		TagList:     append([]string{}, a.TagList...),
		CreatedAt:   formatTime(a.CreatedAt),
		UpdatedAt:   formatTime(a.UpdatedAt),
		Author:      newProfileResponse(b, author(b, a.AuthorID), viewer),
	}
	if viewer != nil {
		resp.Favorited, _ = b.Favorites.IsLinked(viewer.ID, a.ID)
	}
	if fans, err := b.Favorites.SourcesForTarget(a.ID); err == nil {
		resp.FavoritesCount = len(fans)
	}
	return resp
}

func newCommentResponse(b *store.Bundle, c *store.Comment, viewer *store.User) commentResponse {
	id := json.Number(c.ID)
	if _, err := strconv.ParseUint(c.ID, 10, 64); err != nil {
		id = json.Number("0")
	}
	return commentResponse{
		ID:        id,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
		Body:      c.Body,
		Author:    newProfileResponse(b, author(b, c.AuthorID), viewer),
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Warningf("failed to write response: %v", err)
	}
}

// writeError writes {"errors":{"body":[msg...]}} with the given status code.
func writeError(w http.ResponseWriter, status int, msg ...string) {
	var resp errorResponse
	resp.Errors.Body = msg
	writeJSON(w, status, resp)
}

// internalError logs err and answers with 500.
func internalError(w http.ResponseWriter, err error) {
	Logger.Errorf("request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
