// Command server runs the Torneio Maker Messenger bot.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/torneiomaker/messenger-bot/internal/app"
	"github.com/torneiomaker/messenger-bot/internal/buildinfo"
	"github.com/torneiomaker/messenger-bot/internal/config"
	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "torneio-maker",
		Short: "Torneio Maker Messenger bot",
		Long:  "Serves the Messenger webhook that registers players and their summoner names.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to the optional config file")

	cmd.AddCommand(newSetupCmd(&configPath))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func runServer(configPath string, errOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		printConfigHint(errOut, configPath, err)
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return application.Run()
}

// printConfigHint explains where missing keys can be supplied.
func printConfigHint(w io.Writer, configPath string, err error) {
	if !domerrors.IsConfigMissing(err) {
		return
	}
	fmt.Fprintf(w, "Configuration is incomplete. Set the missing keys in the environment, a .env file or %s.\n", configPath)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
