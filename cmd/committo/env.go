package main

import (
	"fmt"

	"github.com/metalagman/committo/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func envCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage stored configuration",
	}
	cmd.AddCommand(envSetCmd(a))
	cmd.AddCommand(envShowCmd(a))
	return cmd
}

func envSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:          "set <key>=<value> | set <key> <value>",
		Short:        "Store a configuration value",
		Long:         "Store a configuration value. Valid keys: api-key, candidate-count, llm-provider, llm-model, endpoint, request-timeout.",
		SilenceUsage: true,
		Args:         cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key, value string
			if len(args) == 2 {
				key, value = args[0], args[1]
			} else {
				var err error
				key, value, err = config.ParsePair(args[0])
				if err != nil {
					return err
				}
			}

			path, _, err := a.configPaths()
			if err != nil {
				return err
			}
			written, err := config.Set(path, key, value)
			if err != nil {
				return err
			}
			log.Debug().Str("key", written).Str("path", path).Msg("config value stored")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", written, path)
			return err
		},
	}
}

func envShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Show stored configuration with the API key masked",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _, err := a.configPaths()
			if err != nil {
				return err
			}
			return config.Show(cmd.OutOrStdout(), path)
		},
	}
}
