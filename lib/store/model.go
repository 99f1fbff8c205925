package store

import (
	"slices"
	"time"
)

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

// DefaultImage is the avatar assigned to newly registered users.
const DefaultImage = "https://api.realworld.io/images/smiley-cyrus.jpeg"

// User is a registered account of a session. Password holds a hash, never
// the plain text. Token is the only token accepted for this user.
type User struct {
	ID        string
	Email     string
	Username  string
	Password  string
	Bio       string
	Image     string
	Token     string
	CreatedAt time.Time
}

func (u *User) SetID(id string) { u.ID = id }

// Article is a post written by the user AuthorID. TagList is kept sorted.
type Article struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Body        string
	TagList     []string
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Article) SetID(id string) { a.ID = id }

// HasTag reports whether the article is tagged with tag.
func (a *Article) HasTag(tag string) bool {
	return slices.Contains(a.TagList, tag)
}

// Comment is a reply by AuthorID to the article ArticleID.
type Comment struct {
	ID        string
	Body      string
	ArticleID string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Comment) SetID(id string) { c.ID = id }
