package util

import (
	"strings"

	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by viper
	EnvPrefix = "rwkv"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads the env files and sets up viper to read RWKV_* variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds the connection flags of the API client to a command
func SetupClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig()

	key := "endpoint"
	cmd.PersistentFlags().String(key, defaults.Endpoint, WrapString("The base url of the rwKV server"))

	key = "origin"
	cmd.PersistentFlags().String(key, "", WrapString("Origin header sent with register and login requests. Must be one of the allowed origins of the server unless the origin check is bypassed"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, defaults.TimeoutSecond, WrapString("The timeout in seconds of the client"))

	key = "retries"
	cmd.PersistentFlags().Int(key, defaults.RetryCount, WrapString("How many times to try read requests"))

	key = "session"
	cmd.PersistentFlags().String(key, "", WrapString("Session id to resume (the value of the session cookie)"))

	key = "token"
	cmd.PersistentFlags().String(key, "", WrapString("Auth token of a previous login"))
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoint:      viper.GetString("endpoint"),
		Origin:        viper.GetString("origin"),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("retries"),
		Session:       viper.GetString("session"),
		Token:         viper.GetString("token"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
