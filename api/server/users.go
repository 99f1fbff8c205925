package server

import (
	"fmt"
	"net/http"

	"github.com/ValentinKolb/rwKV/lib/store"
)

// register handles POST /users
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	f := s.config.Fields
	invalid := fmt.Sprintf("Email, username and password are expected as strings of length less than %d, %d, and %d, respectively",
		f.Email, f.Username, f.Password)

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, invalid)
		return
	}
	in := req.User
	if !s.present(in.Email, in.Username, in.Password) {
		writeError(w, http.StatusUnprocessableEntity, "Email, username and password are required")
		return
	}
	if !s.fits(in.Email, f.Email) || !s.fits(in.Username, f.Username) || !s.fits(in.Password, f.Password) {
		writeError(w, http.StatusUnprocessableEntity, invalid)
		return
	}

	b := sess.bundle
	if b.UserByEmail(in.Email) != nil || b.UserByUsername(in.Username) != nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}

	hash, err := hashPassword(in.Password, s.config.PasswordCost)
	if err != nil {
		internalError(w, err)
		return
	}
	now := s.now()
	user := &store.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  hash,
		Image:     store.DefaultImage,
		CreatedAt: now,
	}
	if _, err = b.Users.Insert(user); err != nil {
		internalError(w, err)
		return
	}
	if user.Token, err = s.tokens.Issue(user.ID, now); err != nil {
		internalError(w, err)
		return
	}

	issueSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, map[string]any{"user": newUserResponse(user)})
}

// login handles POST /users/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}
	if !s.present(req.User.Email, req.User.Password) {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required")
		return
	}

	user := sess.bundle.UserByEmail(req.User.Email)
	if user == nil || !checkPassword(user.Password, req.User.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// a new token invalidates the previous one
	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		internalError(w, err)
		return
	}
	user.Token = token

	issueSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}

// currentUser handles GET /user
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	touch(sessionFrom(r).bundle, user)
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}

// updateUser handles PUT /user
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r).bundle
	user := userFrom(r)
	f := s.config.Fields

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	in := req.User

	if in.Username != nil && *in.Username == "" {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("username is an optional string of length <= %d", f.Username))
		return
	}
	for _, msg := range []string{
		s.optionalFits("username", in.Username, f.Username),
		s.optionalFits("password", in.Password, f.Password),
		s.optionalFits("bio", in.Bio, f.Bio),
		s.optionalFits("image", in.Image, f.Image),
	} {
		if msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	if in.Username != nil && *in.Username != user.Username && b.UserByUsername(*in.Username) != nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	// all checks passed, nothing below leaves the user half updated
	var hash string
	if in.Password != nil {
		var err error
		if hash, err = hashPassword(*in.Password, s.config.PasswordCost); err != nil {
			internalError(w, err)
			return
		}
	}

	touch(b, user)
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Password != nil {
		user.Password = hash
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Image != nil {
		user.Image = *in.Image
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}

// touch marks u as recently used.
func touch(b *store.Bundle, u *store.User) {
	_, _, _ = b.Users.Get(u.ID)
}
