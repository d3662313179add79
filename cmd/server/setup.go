package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/torneiomaker/messenger-bot/internal/bot"
	"github.com/torneiomaker/messenger-bot/internal/config"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
)

type threadSettingsClient interface {
	SetThreadSettings(ctx context.Context, setting messenger.ThreadSetting) error
}

func newSetupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Register the greeting, get started button and persistent menu",
		Long:  "Posts the page's thread settings to the Graph API. Only the page access token is required.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadForMode(*configPath, config.SetupMode)
			if err != nil {
				printConfigHint(cmd.ErrOrStderr(), *configPath, err)
				return fmt.Errorf("load config: %w", err)
			}

			client := messenger.NewClient(messenger.ClientConfig{
				BaseURL:     cfg.GraphAPIURL,
				AccessToken: cfg.PageAccessToken,
				Timeout:     cfg.OutboundTimeout,
			})
			return applyThreadSettings(cmd.Context(), client, bot.NewCatalog(cfg.ServerURL).ThreadSettings(), cmd.OutOrStdout())
		},
	}
}

// applyThreadSettings posts every setting in order and stops at the first failure.
func applyThreadSettings(ctx context.Context, client threadSettingsClient, settings []messenger.ThreadSetting, out io.Writer) error {
	for _, s := range settings {
		if err := client.SetThreadSettings(ctx, s); err != nil {
			return fmt.Errorf("set %s: %w", describeSetting(s), err)
		}
		fmt.Fprintf(out, "registered %s\n", describeSetting(s))
	}
	return nil
}

func describeSetting(s messenger.ThreadSetting) string {
	if s.ThreadState == "" {
		return s.SettingType
	}
	return s.SettingType + " (" + s.ThreadState + ")"
}
