package db

import (
	"strconv"
	"unicode/utf8"
)

// NormalizeID converts a raw identifier into the canonical string key used by
// tables and link indexes. Integers are rendered in decimal, strings are kept
// as-is up to maxLen runes. Everything else (booleans included) is rejected
// with an error matching ErrInvalidIdentifier.
func NormalizeID(value any, maxLen int) (string, error) {
	switch v := value.(type) {
	case bool:
		// booleans are never identifiers
		return "", NewError(RetCInvalidIdentifier, "id must be an int or a string")
	case string:
		if utf8.RuneCountInString(v) > maxLen {
			return "", NewError(RetCInvalidIdentifier, "id is too long")
		}
		return v, nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	default:
		return "", NewError(RetCInvalidIdentifier, "id must be an int or a string")
	}
}
