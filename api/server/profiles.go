package server

import (
	"net/http"
	"net/url"

	"github.com/ValentinKolb/rwKV/lib/store"
	"github.com/go-chi/chi/v5"
)

// urlParam returns the unescaped path parameter name.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// profileTarget resolves the {username} parameter or writes a 404.
func profileTarget(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	u := sessionFrom(r).bundle.UserByUsername(urlParam(r, "username"))
	if u == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return nil, false
	}
	return u, true
}

// getProfile handles GET /profiles/{username}
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	target, ok := profileTarget(w, r)
	if !ok {
		return
	}
	b := sessionFrom(r).bundle
	writeJSON(w, http.StatusOK, map[string]any{"profile": newProfileResponse(b, target, userFrom(r))})
}

// follow handles POST /profiles/{username}/follow
func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	target, ok := profileTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	if target.ID == viewer.ID {
		writeError(w, http.StatusUnprocessableEntity, "Cannot follow yourself")
		return
	}
	if err := b.Follows.Add(viewer.ID, target.ID); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": newProfileResponse(b, target, viewer)})
}

// unfollow handles DELETE /profiles/{username}/follow
func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	target, ok := profileTarget(w, r)
	if !ok {
		return
	}
	b, viewer := sessionFrom(r).bundle, userFrom(r)
	if err := b.Follows.Remove(viewer.ID, target.ID); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": newProfileResponse(b, target, viewer)})
}
