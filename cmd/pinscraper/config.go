package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"pinscraper/pkg/config"
	"pinscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pinscraper configuration files.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (PINSCRAPER_*)
  - .env files
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file holding every option at its default value.

The file is written to .pinscraper.yaml in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and report every invalid value.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Directory accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".pinscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Edit the configuration file")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'pinscraper config validate' to check it")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Start with 'pinscraper pins <user> <board>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	var problems []string
	if err := os.MkdirAll(cfg.Download.OutputDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Cache.Enabled {
		if err := os.MkdirAll(cfg.Cache.Directory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create cache directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
		}
		return fmt.Errorf("configuration is invalid")
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Base URL: %s\n", cfg.Pinterest.BaseURL)
	fmt.Fprintf(out, "  Request interval: %s\n", cfg.Pinterest.RequestInterval)
	if cfg.Cache.Enabled {
		fmt.Fprintf(out, "  Cache directory: %s\n", cfg.Cache.Directory)
	} else {
		fmt.Fprintln(out, "  Cache: disabled")
	}
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Download.OutputDirectory)
	fmt.Fprintf(out, "  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Fprintf(out, "  Retry attempts: %d\n", cfg.Download.RetryAttempts)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
