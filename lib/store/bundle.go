package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ValentinKolb/rwKV/lib/db"
)

// --------------------------------------------------------------------------
// Limits
// --------------------------------------------------------------------------

// Limits holds the capacities of the collections of a single bundle.
type Limits struct {
	Users     int // max users per session
	Articles  int // max articles per session
	Comments  int // max comments per session
	Follows   int // max follow edges per session
	Favorites int // max favorite edges per session
	MaxIDLen  int // max length of any identifier
}

// DefaultLimits returns the limits used when nothing else is configured.
func DefaultLimits() Limits {
	return Limits{
		Users:     60,
		Articles:  10,
		Comments:  20,
		Follows:   100,
		Favorites: 100,
		MaxIDLen:  64,
	}
}

// Validate checks that all capacities are usable.
func (l Limits) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"users", l.Users},
		{"articles", l.Articles},
		{"comments", l.Comments},
		{"follows", l.Follows},
		{"favorites", l.Favorites},
		{"max id len", l.MaxIDLen},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return db.NewError(db.RetCInvalidConfiguration, fmt.Sprintf("invalid value for %s: %d", f.name, f.value))
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Bundle
// --------------------------------------------------------------------------

// Bundle is the complete, isolated data set of one session. Callers must hold
// the embedded mutex for the whole duration of a request.
type Bundle struct {
	sync.Mutex

	Users     *db.Table[*User]
	Articles  *db.Table[*Article]
	Comments  *db.Table[*Comment]
	Follows   *db.LinkIndex // follower -> followed user
	Favorites *db.LinkIndex // user -> favorited article
}

// NewBundle creates an empty bundle with the given limits.
func NewBundle(l Limits) (*Bundle, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var (
		b   = &Bundle{}
		err error
	)
	if b.Users, err = db.NewTable[*User](l.Users, l.MaxIDLen); err != nil {
		return nil, err
	}
	if b.Articles, err = db.NewTable[*Article](l.Articles, l.MaxIDLen); err != nil {
		return nil, err
	}
	if b.Comments, err = db.NewTable[*Comment](l.Comments, l.MaxIDLen); err != nil {
		return nil, err
	}
	if b.Follows, err = db.NewLinkIndex(l.Follows, l.MaxIDLen); err != nil {
		return nil, err
	}
	if b.Favorites, err = db.NewLinkIndex(l.Favorites, l.MaxIDLen); err != nil {
		return nil, err
	}
	return b, nil
}

// --------------------------------------------------------------------------
// Lookups (none of them count as a read of the matched record)
// --------------------------------------------------------------------------

// UserByEmail returns the user registered with email, or nil.
func (b *Bundle) UserByEmail(email string) *User {
	for _, u := range b.Users.Values() {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// UserByUsername returns the user named username, or nil.
func (b *Bundle) UserByUsername(username string) *User {
	for _, u := range b.Users.Values() {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// UserByToken returns the user whose current token is token, or nil.
func (b *Bundle) UserByToken(token string) *User {
	if token == "" {
		return nil
	}
	for _, u := range b.Users.Values() {
		if u.Token == token {
			return u
		}
	}
	return nil
}

// ArticleBySlug returns the article with the given slug, or nil.
func (b *Bundle) ArticleBySlug(slug string) *Article {
	for _, a := range b.Articles.Values() {
		if a.Slug == slug {
			return a
		}
	}
	return nil
}

// CommentsForArticle returns all comments of an article in insertion order.
func (b *Bundle) CommentsForArticle(articleID string) []*Comment {
	comments := []*Comment{}
	for _, c := range b.Comments.Values() {
		if c.ArticleID == articleID {
			comments = append(comments, c)
		}
	}
	return comments
}

// Tags returns the sorted set of all tags used by live articles.
func (b *Bundle) Tags() []string {
	set := map[string]struct{}{}
	for _, a := range b.Articles.Values() {
		for _, t := range a.TagList {
			set[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// --------------------------------------------------------------------------
// Slugs
// --------------------------------------------------------------------------

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a title into its URL form: lower case, punctuation
// removed, runs of whitespace and dashes replaced by a single dash.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "article"
	}
	return slug
}

// UniqueSlug returns a slug for title that no live article other than
// exceptID uses, appending -1, -2, ... on collisions.
func (b *Bundle) UniqueSlug(title, exceptID string) string {
	base := Slugify(title)
	taken := func(slug string) bool {
		a := b.ArticleBySlug(slug)
		return a != nil && a.ID != exceptID
	}

	slug := base
	for i := 1; taken(slug); i++ {
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return slug
}

// --------------------------------------------------------------------------
// Cascading writes
// --------------------------------------------------------------------------

// DeleteArticle removes an article together with all favorites pointing at
// it and all of its comments. It reports whether the article existed.
func (b *Bundle) DeleteArticle(id string) (bool, error) {
	removed, err := b.Articles.Delete(id)
	if err != nil || !removed {
		return removed, err
	}

	if err = b.Favorites.DeleteTarget(id); err != nil {
		return true, err
	}
	for cid, c := range b.Comments.Items() {
		if c.ArticleID != id {
			continue
		}
		if _, err = b.Comments.Delete(cid); err != nil {
			return true, err
		}
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Info
// --------------------------------------------------------------------------

// BundleInfo summarizes the content of a bundle.
type BundleInfo struct {
	Users     int    `json:"users"`
	Articles  int    `json:"articles"`
	Comments  int    `json:"comments"`
	Follows   int    `json:"follows"`
	Favorites int    `json:"favorites"`
	Evicted   uint64 `json:"evicted"`
}

// Records returns the number of stored records and edges.
func (i BundleInfo) Records() int {
	return i.Users + i.Articles + i.Comments + i.Follows + i.Favorites
}

// Info returns the current sizes of all collections. The caller must hold
// the bundle lock.
func (b *Bundle) Info() BundleInfo {
	return BundleInfo{
		Users:     b.Users.Len(),
		Articles:  b.Articles.Len(),
		Comments:  b.Comments.Len(),
		Follows:   b.Follows.Len(),
		Favorites: b.Favorites.Len(),
		Evicted:   b.Users.Evicted() + b.Articles.Evicted() + b.Comments.Evicted(),
	}
}
