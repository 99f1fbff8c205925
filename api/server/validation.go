package server

import (
	"fmt"
	"net/url"
	"strconv"
)

// --------------------------------------------------------------------------
// Request bodies
// --------------------------------------------------------------------------

type registerRequest struct {
	User struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"user"`
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type updateUserRequest struct {
	User struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

type articleRequest struct {
	Article struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Body        *string  `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

type commentRequest struct {
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// --------------------------------------------------------------------------
// Field checks
// --------------------------------------------------------------------------

// present reports whether all values are non-empty.
func (s *Server) present(values ...string) bool {
	for _, v := range values {
		if s.validate.Var(v, "required") != nil {
			return false
		}
	}
	return true
}

// fits reports whether value has at most maxLen characters.
func (s *Server) fits(value string, maxLen int) bool {
	return s.validate.Var(value, fmt.Sprintf("max=%d", maxLen)) == nil
}

// optionalFits checks an optional field and returns the error message for it,
// or an empty string.
func (s *Server) optionalFits(name string, value *string, maxLen int) string {
	if value == nil || s.fits(*value, maxLen) {
		return ""
	}
	return fmt.Sprintf("%s is an optional string of length <= %d", name, maxLen)
}

// tagsFit checks the number and the lengths of tags.
func (s *Server) tagsFit(tags []string) bool {
	f := s.config.Fields
	return s.validate.Var(tags, fmt.Sprintf("max=%d,dive,max=%d", f.TagList, f.TagLen)) == nil
}

func (s *Server) tagsMessage() string {
	f := s.config.Fields
	return fmt.Sprintf("tagList is an optional list of less than %d strings of less than %d chars", f.TagList, f.TagLen)
}

// --------------------------------------------------------------------------
// Query parameters
// --------------------------------------------------------------------------

const (
	defaultLimit  = 20
	defaultOffset = 0
)

// pagination parses the limit and offset query parameters.
func pagination(q url.Values) (limit, offset int, err error) {
	parse := func(name string, def int) (int, error) {
		raw := q.Get(name)
		if raw == "" {
			return def, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return n, nil
	}

	if limit, err = parse("limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = parse("offset", defaultOffset); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// page returns the window [offset, offset+limit) of items.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := len(items)
	if limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
