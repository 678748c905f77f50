package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Harsidak/papermd/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage papermd configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file into the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, h, err := loadConfig()
		if err != nil {
			return err
		}
		if h.ConfigExists() && !configForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", h.ConfigPath())
		}
		if err := h.Ensure(); err != nil {
			return err
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		return printer.Print(mgr.Get())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Long: `Print the effective value of a configuration key, for example
layout.url or fallback.heading_max_len. Run "papermd config defaults" for
the list of keys.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		value, err := mgr.Value(args[0])
		if err != nil {
			return err
		}
		return printer.Print(map[string]any{args[0]: value})
	},
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "List configuration keys with their defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printer.Print(config.DefaultEntries())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDefaultsCmd)
	rootCmd.AddCommand(configCmd)
}
