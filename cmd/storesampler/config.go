package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/sape94/NIQ-sp-proj/internal/config"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml (next to the executable unless --config is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgInfo.Path
		if err := config.InitFile(path, initForce); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration, after environment overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgInfo.Found {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfgInfo.Path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s not found, showing defaults\n", cfgInfo.Path)
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
