package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/rwKV/lib/db"
	"github.com/ValentinKolb/rwKV/lib/store"
)

// --------------------------------------------------------------------------
// Field limits
// --------------------------------------------------------------------------

// FieldLimits are the maximum lengths (in characters) of user supplied fields.
type FieldLimits struct {
	Email       int
	Username    int
	Password    int
	Bio         int
	Image       int
	Title       int
	Description int
	Body        int
	TagList     int // max number of tags per article
	TagLen      int
	CommentBody int
}

// DefaultFieldLimits returns the default field limits.
func DefaultFieldLimits() FieldLimits {
	return FieldLimits{
		Email:       100,
		Username:    60,
		Password:    60,
		Bio:         400,
		Image:       200,
		Title:       100,
		Description: 300,
		Body:        3000,
		TagList:     10,
		TagLen:      20,
		CommentBody: 300,
	}
}

// values returns all limits with their names, in declaration order.
func (f FieldLimits) values() []struct {
	name  string
	value int
} {
	return []struct {
		name  string
		value int
	}{
		{"email", f.Email},
		{"username", f.Username},
		{"password", f.Password},
		{"bio", f.Bio},
		{"image", f.Image},
		{"title", f.Title},
		{"description", f.Description},
		{"body", f.Body},
		{"tag list", f.TagList},
		{"tag length", f.TagLen},
		{"comment body", f.CommentBody},
	}
}

// --------------------------------------------------------------------------
// API server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the API server.
type ServerConfig struct {
	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string

	// Session settings
	DisableIsolation bool
	MaxSessions      int
	Limits           store.Limits
	Fields           FieldLimits

	// Rate limit for the creation of new sessions per client IP
	SessionsPerMinute float64 // 0 disables the limit
	SessionBurst      int

	// Security settings
	AllowedOrigins    []string
	BypassOriginCheck bool
	TokenSecret       string
	PasswordCost      int
}

// DefaultServerConfig returns a configuration with all defaults applied. The
// allowed origins are left empty and must be set unless the origin check is
// bypassed.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:          "0.0.0.0:8000",
		LogLevel:          "info",
		MaxSessions:       300,
		Limits:            store.DefaultLimits(),
		Fields:            DefaultFieldLimits(),
		SessionsPerMinute: 30,
		SessionBurst:      10,
		PasswordCost:      10,
	}
}

// Validate checks the configuration and returns an error matching
// db.ErrInvalidConfiguration for the first problem found.
func (c *ServerConfig) Validate() error {
	invalid := func(format string, args ...any) error {
		return db.NewError(db.RetCInvalidConfiguration, fmt.Sprintf(format, args...))
	}

	if c.MaxSessions <= 0 {
		return invalid("invalid value for max sessions: %d", c.MaxSessions)
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	for _, f := range c.Fields.values() {
		if f.value <= 0 {
			return invalid("invalid value for max length of %s: %d", f.name, f.value)
		}
	}
	if c.SessionsPerMinute < 0 || (c.SessionsPerMinute > 0 && c.SessionBurst <= 0) {
		return invalid("invalid session rate limit: %g per minute, burst %d", c.SessionsPerMinute, c.SessionBurst)
	}
	if !c.BypassOriginCheck && len(c.AllowedOrigins) == 0 {
		return invalid("allowed origins must be set if the origin check is not bypassed")
	}
	if c.PasswordCost < 4 || c.PasswordCost > 31 {
		return invalid("invalid password cost: %d (expected 4-31)", c.PasswordCost)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return invalid("%s", err)
	}
	return nil
}

// EstimatedSessionBytes returns a naive upper bound of the payload a single
// full session can hold, ignoring bookkeeping overhead.
func (c *ServerConfig) EstimatedSessionBytes() int {
	f := c.Fields
	user := f.Email + f.Username + f.Password + f.Bio + f.Image
	article := f.Title + f.Description + f.Body + f.TagList*f.TagLen
	return user*c.Limits.Users + article*c.Limits.Articles + f.CommentBody*c.Limits.Comments
}

// EstimatedTotalBytes returns the naive upper bound for all sessions.
func (c *ServerConfig) EstimatedTotalBytes() int {
	if c.DisableIsolation {
		return c.EstimatedSessionBytes()
	}
	return c.EstimatedSessionBytes() * c.MaxSessions
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// API settings
	addSection("API Server")
	addField("Endpoint", c.Endpoint)

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Sessions
	addSection("Sessions")
	addField("Isolation", strconv.FormatBool(!c.DisableIsolation))
	addField("Max Sessions", strconv.Itoa(c.MaxSessions))
	if c.SessionsPerMinute > 0 {
		addField("New Sessions / IP", fmt.Sprintf("%g per min (burst %d)", c.SessionsPerMinute, c.SessionBurst))
	} else {
		addField("New Sessions / IP", "unlimited")
	}
	addField("Estimated Memory", fmt.Sprintf("%d KB", c.EstimatedTotalBytes()/1024))

	// Per session limits
	addSection("Limits per Session")
	addField("Users", strconv.Itoa(c.Limits.Users))
	addField("Articles", strconv.Itoa(c.Limits.Articles))
	addField("Comments", strconv.Itoa(c.Limits.Comments))
	addField("Follows", strconv.Itoa(c.Limits.Follows))
	addField("Favorites", strconv.Itoa(c.Limits.Favorites))
	addField("Max ID Length", strconv.Itoa(c.Limits.MaxIDLen))

	// Field limits
	addSection("Field Limits")
	for _, f := range c.Fields.values() {
		addField(f.name, strconv.Itoa(f.value))
	}

	// Security
	addSection("Security")
	if c.BypassOriginCheck {
		addField("Origin Check", "bypassed")
	} else {
		addField("Allowed Origins", strings.Join(c.AllowedOrigins, ", "))
	}
	addField("Password Cost", strconv.Itoa(c.PasswordCost))

	return sb.String()
}

// --------------------------------------------------------------------------
// API client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the parameters of an API client.
type ClientConfig struct {
	Endpoint      string // base url of the server, e.g. http://localhost:8000
	Origin        string // sent as Origin header on credential requests
	TimeoutSecond int
	RetryCount    int // retries of read requests on transport errors
	Session       string
	Token         string
}

// DefaultClientConfig returns the client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:      "http://localhost:8000",
		TimeoutSecond: 10,
		RetryCount:    3,
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Origin", c.Origin)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Session", strconv.FormatBool(c.Session != ""))

	return sb.String()
}
