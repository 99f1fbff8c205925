package server

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/ValentinKolb/rwKV/lib/store"
)

// listComments handles GET /articles/{slug}/comments
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)

	comments := b.CommentsForArticle(article.ID)
	slices.SortStableFunc(comments, func(x, y *store.Comment) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})

	resp := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, newCommentResponse(b, c, viewer))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": resp})
}

// createComment handles POST /articles/{slug}/comments
func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	invalid := fmt.Sprintf("Body is a string of less than %d chars", s.config.Fields.CommentBody)

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, invalid)
		return
	}
	if !s.present(req.Comment.Body) {
		writeError(w, http.StatusUnprocessableEntity, "Body is required")
		return
	}
	if !s.fits(req.Comment.Body, s.config.Fields.CommentBody) {
		writeError(w, http.StatusUnprocessableEntity, invalid)
		return
	}

	now := s.now()
	comment := &store.Comment{
		Body:      req.Comment.Body,
		ArticleID: article.ID,
		AuthorID:  viewer.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := b.Comments.Insert(comment); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comment": newCommentResponse(b, comment, viewer)})
}

// deleteComment handles DELETE /articles/{slug}/comments/{id}. The author of
// the comment and the author of the article may delete it.
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	article, ok := articleTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)

	comment, found, err := b.Comments.Get(urlParam(r, "id"))
	if err != nil || !found || comment.ArticleID != article.ID {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.AuthorID != viewer.ID && article.AuthorID != viewer.ID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if _, err = b.Comments.Delete(comment.ID); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
