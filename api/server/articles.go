package server

import (
	"net/http"
	"slices"
	"sort"

	"github.com/ValentinKolb/rwKV/lib/store"
)

// newestFirst sorts articles by creation time, newest first. Articles created
// at the same time keep their relative order.
func newestFirst(articles []*store.Article) {
	slices.SortStableFunc(articles, func(a, b *store.Article) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// articleTarget resolves the {slug} parameter or writes a 404. Resolving an
// article counts as a use of it.
func articleTarget(w http.ResponseWriter, r *http.Request) (*store.Article, bool) {
	b := sessionFrom(r).bundle
	a := b.ArticleBySlug(urlParam(r, "slug"))
	if a == nil {
		writeError(w, http.StatusNotFound, "Article not found")
		return nil, false
	}
	_, _, _ = b.Articles.Get(a.ID)
	return a, true
}

// writeArticles renders one page of articles
func (s *Server) writeArticles(w http.ResponseWriter, r *http.Request, articles []*store.Article) {
	limit, offset, err := pagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b, viewer := sessionFrom(r).bundle, userFrom(r)
	newestFirst(articles)
	total := len(articles)

	resp := []articleResponse{}
	for _, a := range page(articles, limit, offset) {
		resp = append(resp, newArticleResponse(b, a, viewer))
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": resp, "articlesCount": total})
}

// listArticles handles GET /articles
func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r).bundle
	q := r.URL.Query()
	articles := b.Articles.Values()

	if tag := q.Get("tag"); tag != "" {
		articles = slices.DeleteFunc(articles, func(a *store.Article) bool { return !a.HasTag(tag) })
	}
	if name := q.Get("author"); name != "" {
		author := b.UserByUsername(name)
		articles = slices.DeleteFunc(articles, func(a *store.Article) bool {
			return author == nil || a.AuthorID != author.ID
		})
	}
	if name := q.Get("favorited"); name != "" {
		var favorites []string
		if fan := b.UserByUsername(name); fan != nil {
			favorites, _ = b.Favorites.TargetsForSource(fan.ID)
		}
		articles = slices.DeleteFunc(articles, func(a *store.Article) bool {
			return !slices.Contains(favorites, a.ID)
		})
	}

	s.writeArticles(w, r, articles)
}

// feed handles GET /articles/feed
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	followed, err := b.Follows.TargetsForSource(viewer.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	articles := slices.DeleteFunc(b.Articles.Values(), func(a *store.Article) bool {
		return !slices.Contains(followed, a.AuthorID)
	})
	s.writeArticles(w, r, articles)
}

// createArticle handles POST /articles
func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	f := s.config.Fields

	var req articleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	in := req.Article
	if in.Title == nil || in.Description == nil || in.Body == nil || !s.present(*in.Title, *in.Description, *in.Body) {
		writeError(w, http.StatusUnprocessableEntity, "Title, description and body are required")
		return
	}
	for _, msg := range []string{
		s.optionalFits("title", in.Title, f.Title),
		s.optionalFits("description", in.Description, f.Description),
		s.optionalFits("body", in.Body, f.Body),
	} {
		if msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if !s.tagsFit(in.TagList) {
		writeError(w, http.StatusUnprocessableEntity, s.tagsMessage())
		return
	}

	tags := append([]string{}, in.TagList...)
	sort.Strings(tags)
	now := s.now()
	article := &store.Article{
		Slug:        b.UniqueSlug(*in.Title, ""),
		Title:       *in.Title,
		Description: *in.Description,
		Body:        *in.Body,
		TagList:     tags,
		AuthorID:    viewer.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := b.Articles.Insert(article); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"article": newArticleResponse(b, article, viewer)})
}

// getArticle handles GET /articles/{slug}
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": newArticleResponse(sessionFrom(r).bundle, article, userFrom(r))})
}

// updateArticle handles PUT /articles/{slug}
func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	if article.AuthorID != viewer.ID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req articleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	in := req.Article
	f := s.config.Fields

	if in.Title != nil && *in.Title == "" {
		in.Title = nil
	}
	for _, msg := range []string{
		s.optionalFits("title", in.Title, f.Title),
		s.optionalFits("description", in.Description, f.Description),
		s.optionalFits("body", in.Body, f.Body),
	} {
		if msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if in.TagList != nil && !s.tagsFit(in.TagList) {
		writeError(w, http.StatusUnprocessableEntity, s.tagsMessage())
		return
	}

	if in.Title != nil && *in.Title != article.Title {
		article.Slug = b.UniqueSlug(*in.Title, article.ID)
		article.Title = *in.Title
	}
	if in.Description != nil {
		article.Description = *in.Description
	}
	if in.Body != nil {
		article.Body = *in.Body
	}
	if in.TagList != nil {
		tags := append([]string{}, in.TagList...)
		sort.Strings(tags)
		article.TagList = tags
	}
	article.UpdatedAt = s.now()

	writeJSON(w, http.StatusOK, map[string]any{"article": newArticleResponse(b, article, viewer)})
}

// deleteArticle handles DELETE /articles/{slug}
func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	if article.AuthorID != userFrom(r).ID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if _, err := sessionFrom(r).bundle.DeleteArticle(article.ID); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// favorite handles POST /articles/{slug}/favorite
func (s *Server) favorite(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	if err := b.Favorites.Add(viewer.ID, article.ID); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": newArticleResponse(b, article, viewer)})
}

// unfavorite handles DELETE /articles/{slug}/favorite
func (s *Server) unfavorite(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	if err := b.Favorites.Remove(viewer.ID, article.ID); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": newArticleResponse(b, article, viewer)})
}

// tags handles GET /tags
func (s *Server) tags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": sessionFrom(r).bundle.Tags()})
}
