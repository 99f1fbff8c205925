package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rwKV/cmd/api"
	"github.com/ValentinKolb/rwKV/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rwkv",
		Short: "in-memory RealWorld API backend",
		Long: fmt.Sprintf(`rwKV (v%s)

An in-memory backend for the RealWorld blogging API. Every client session
gets its own bounded data set, the least recently used data is dropped
first. Nothing is persisted.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rwKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rwKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(api.APICommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
