package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/ValentinKolb/rwKV/api/server"
	cmdUtil "github.com/ValentinKolb/rwKV/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the rwKV API server",
		Long: `Start the rwKV API server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is RWKV_<flag> (e.g. RWKV_MAX_SESSIONS=500).
The unprefixed names (MAX_SESSIONS, DISABLE_ISOLATION_MODE, MAX_USERS_PER_SESSION, ALLOWED_ORIGINS, ...) are read as well.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

// envAliases maps flags to the unprefixed environment variables also read for them
var envAliases = map[string]string{
	"disable-isolation":    "DISABLE_ISOLATION_MODE",
	"max-sessions":         "MAX_SESSIONS",
	"bypass-origin-check":  "BYPASS_ORIGIN_CHECK",
	"allowed-origins":      "ALLOWED_ORIGINS",
	"max-id-len":           "MAX_ID_LEN",
	"max-users":            "MAX_USERS_PER_SESSION",
	"max-articles":         "MAX_ARTICLES_PER_SESSION",
	"max-comments":         "MAX_COMMENTS_PER_SESSION",
	"max-follows":          "MAX_FOLLOWS_PER_SESSION",
	"max-favorites":        "MAX_FAVORITES_PER_SESSION",
	"max-len-email":        "MAX_LEN_USER_EMAIL",
	"max-len-username":     "MAX_LEN_USER_USERNAME",
	"max-len-password":     "MAX_LEN_USER_PASSWORD",
	"max-len-bio":          "MAX_LEN_USER_BIO",
	"max-len-image":        "MAX_LEN_USER_IMAGE",
	"max-len-title":        "MAX_LEN_ARTICLE_TITLE",
	"max-len-description":  "MAX_LEN_ARTICLE_DESCRIPTION",
	"max-len-body":         "MAX_LEN_ARTICLE_BODY",
	"max-len-tag-list":     "MAX_LEN_ARTICLE_TAG_LIST",
	"max-len-tag":          "MAX_LEN_ARTICLE_TAG_LEN",
	"max-len-comment-body": "MAX_LEN_COMMENT_BODY",
}

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	d := common.DefaultServerConfig()
	flags := ServeCmd.PersistentFlags()

	// add flags
	key := "endpoint"
	flags.String(key, d.Endpoint, cmdUtil.WrapString("The address on which the API will listen (e.g. 0.0.0.0:8000)"))

	key = "log-level"
	flags.String(key, d.LogLevel, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// sessions
	key = "disable-isolation"
	flags.Bool(key, d.DisableIsolation, cmdUtil.WrapString("Serve all clients from one shared data set instead of one per session"))

	key = "max-sessions"
	flags.Int(key, d.MaxSessions, cmdUtil.WrapString("Number of sessions kept in memory. Once reached, the least recently used session is dropped"))

	key = "sessions-per-minute"
	flags.Float64(key, d.SessionsPerMinute, cmdUtil.WrapString("How many new sessions a single client (IPv4 address or IPv6 /64) may create per minute, 0 disables the limit"))

	key = "session-burst"
	flags.Int(key, d.SessionBurst, cmdUtil.WrapString("How many new sessions a single client may create at once"))

	// per session limits
	key = "max-id-len"
	flags.Int(key, d.Limits.MaxIDLen, cmdUtil.WrapString("Maximum length of ids, including session ids"))

	key = "max-users"
	flags.Int(key, d.Limits.Users, cmdUtil.WrapString("Maximum number of users per session"))

	key = "max-articles"
	flags.Int(key, d.Limits.Articles, cmdUtil.WrapString("Maximum number of articles per session"))

	key = "max-comments"
	flags.Int(key, d.Limits.Comments, cmdUtil.WrapString("Maximum number of comments per session"))

	key = "max-follows"
	flags.Int(key, d.Limits.Follows, cmdUtil.WrapString("Maximum number of follow relations per session"))

	key = "max-favorites"
	flags.Int(key, d.Limits.Favorites, cmdUtil.WrapString("Maximum number of favorites per session"))

	// field limits
	key = "max-len-email"
	flags.Int(key, d.Fields.Email, cmdUtil.WrapString("Maximum length of an email address"))

	key = "max-len-username"
	flags.Int(key, d.Fields.Username, cmdUtil.WrapString("Maximum length of a username"))

	key = "max-len-password"
	flags.Int(key, d.Fields.Password, cmdUtil.WrapString("Maximum length of a password"))

	key = "max-len-bio"
	flags.Int(key, d.Fields.Bio, cmdUtil.WrapString("Maximum length of a user bio"))

	key = "max-len-image"
	flags.Int(key, d.Fields.Image, cmdUtil.WrapString("Maximum length of a user image url"))

	key = "max-len-title"
	flags.Int(key, d.Fields.Title, cmdUtil.WrapString("Maximum length of an article title"))

	key = "max-len-description"
	flags.Int(key, d.Fields.Description, cmdUtil.WrapString("Maximum length of an article description"))

	key = "max-len-body"
	flags.Int(key, d.Fields.Body, cmdUtil.WrapString("Maximum length of an article body"))

	key = "max-len-tag-list"
	flags.Int(key, d.Fields.TagList, cmdUtil.WrapString("Maximum number of tags per article"))

	key = "max-len-tag"
	flags.Int(key, d.Fields.TagLen, cmdUtil.WrapString("Maximum length of a tag"))

	key = "max-len-comment-body"
	flags.Int(key, d.Fields.CommentBody, cmdUtil.WrapString("Maximum length of a comment"))

	// security
	key = "allowed-origins"
	flags.String(key, "", cmdUtil.WrapString("Semicolon-separated list of origins allowed to register and log in (e.g. 'http://localhost:3000;https://app.example.com')"))

	key = "bypass-origin-check"
	flags.Bool(key, d.BypassOriginCheck, cmdUtil.WrapString("Skip the origin check of register and login requests"))

	key = "token-secret"
	flags.String(key, "", cmdUtil.WrapString("Secret used to sign auth tokens. A random secret is generated if empty"))

	key = "password-cost"
	flags.Int(key, d.PasswordCost, cmdUtil.WrapString("bcrypt cost of password hashes (4-31)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// bind the unprefixed environment variables
	for key, alias := range envAliases {
		env := strings.ToUpper(cmdUtil.EnvPrefix + "_" + strings.ReplaceAll(key, "-", "_"))
		if err := viper.BindEnv(key, env, alias); err != nil {
			return err
		}
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	serveCmdConfig.DisableIsolation = viper.GetBool("disable-isolation")
	serveCmdConfig.MaxSessions = viper.GetInt("max-sessions")
	serveCmdConfig.SessionsPerMinute = viper.GetFloat64("sessions-per-minute")
	serveCmdConfig.SessionBurst = viper.GetInt("session-burst")

	serveCmdConfig.Limits.MaxIDLen = viper.GetInt("max-id-len")
	serveCmdConfig.Limits.Users = viper.GetInt("max-users")
	serveCmdConfig.Limits.Articles = viper.GetInt("max-articles")
	serveCmdConfig.Limits.Comments = viper.GetInt("max-comments")
	serveCmdConfig.Limits.Follows = viper.GetInt("max-follows")
	serveCmdConfig.Limits.Favorites = viper.GetInt("max-favorites")

	serveCmdConfig.Fields.Email = viper.GetInt("max-len-email")
	serveCmdConfig.Fields.Username = viper.GetInt("max-len-username")
	serveCmdConfig.Fields.Password = viper.GetInt("max-len-password")
	serveCmdConfig.Fields.Bio = viper.GetInt("max-len-bio")
	serveCmdConfig.Fields.Image = viper.GetInt("max-len-image")
	serveCmdConfig.Fields.Title = viper.GetInt("max-len-title")
	serveCmdConfig.Fields.Description = viper.GetInt("max-len-description")
	serveCmdConfig.Fields.Body = viper.GetInt("max-len-body")
	serveCmdConfig.Fields.TagList = viper.GetInt("max-len-tag-list")
	serveCmdConfig.Fields.TagLen = viper.GetInt("max-len-tag")
	serveCmdConfig.Fields.CommentBody = viper.GetInt("max-len-comment-body")

	serveCmdConfig.AllowedOrigins = parseOrigins(viper.GetString("allowed-origins"))
	serveCmdConfig.BypassOriginCheck = viper.GetBool("bypass-origin-check")
	serveCmdConfig.TokenSecret = viper.GetString("token-secret")
	serveCmdConfig.PasswordCost = viper.GetInt("password-cost")

	if err := serveCmdConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// parseOrigins splits a semicolon-separated origin list
func parseOrigins(raw string) []string {
	origins := []string{}
	for _, origin := range strings.Split(raw, ";") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// run starts the rwKV server
func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggers(serveCmdConfig); err != nil {
		return err
	}
	defer common.SyncLoggers()

	serv, err := server.NewServer(serveCmdConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serv.Serve(ctx)
}

// initConfig reads in ENV variables if set.
func initConfig() {
	cmdUtil.InitConfig()
}
