package api

import (
	"github.com/ValentinKolb/rwKV/api/client"
	"github.com/ValentinKolb/rwKV/cmd/util"
	"github.com/spf13/cobra"
)

var (
	apiClient *client.Client

	// APICommands represents the api command group
	APICommands = &cobra.Command{
		Use:               "api",
		Short:             "Talk to a running rwKV server",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add connection flags to the api command
	util.SetupClientFlags(APICommands)

	// Add subcommands
	APICommands.AddCommand(registerCmd)
	APICommands.AddCommand(loginCmd)
	APICommands.AddCommand(userCmd)
	APICommands.AddCommand(profileCmd)
	APICommands.AddCommand(articlesCmd)
	APICommands.AddCommand(tagsCmd)
	APICommands.AddCommand(perfTestCmd)
}

// setupClient initializes the API client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	apiClient, err = client.NewClient(util.GetClientConfig())
	return err
}
