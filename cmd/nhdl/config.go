package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nhdl/pkg/auth"
	"nhdl/pkg/config"
	"nhdl/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage nhdl configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (NHDL_*)
  - .env files (./.env, ~/.env, ~/.nhdl.env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to .nhdl.yaml in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration nhdl would run with after merging every source.

The session cookie is masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file for YAML syntax and invalid values, and
check that the output and log directories can be created.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# nhdl configuration file
#
# Every option can also be set with an NHDL_ environment variable,
# for example NHDL_OUTPUT_DIR, NHDL_COOKIE or NHDL_PROXY.

site:
  scheme: "https"
  host: "nhentai.net"
  # Must match the browser the cookie was copied from
  user_agent: ""
  # Raw Cookie header; prefer 'nhdl auth login' over storing it here
  cookie: ""
  # Stored account to use when none is given with --account
  account: ""

http:
  timeout: 60s
  # http://, https:// or socks5://
  proxy: ""
  max_redirects: 10

rate_limit:
  # 0 disables pacing
  requests_per_second: 0
  burst: 0

output:
  # Galleries are saved to <base_directory>/<id>/
  base_directory: "."
  # Fetch every page again even when the file exists
  overwrite: false
  # Fetch missing pages of galleries whose directory already exists
  check_missing: true

download:
  # Pages of one gallery fetched at once (1-5)
  concurrent_pages: 5
  # Galleries of a results page downloaded at once
  concurrent_galleries: 1

logging:
  # trace, debug, info, warn, error, disabled
  level: "info"
  # Optional JSON log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".nhdl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file, or run 'nhdl auth login' to store a session cookie")
	fmt.Println("2. Run 'nhdl config validate' to check it")
	fmt.Println("3. Start downloading with 'nhdl single <id>' or 'nhdl query <text>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return err
	}

	display := *cfg
	if display.Site.Cookie != "" {
		display.Site.Cookie = auth.MaskString(display.Site.Cookie)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (NHDL_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	ui.PrintInfo("Validating configuration", displayPath(configFile))

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []string
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration problem(s)", len(problems))
	}

	if cfg.Site.Cookie == "" && cfg.Site.Account == "" {
		ui.PrintWarning("No session cookie configured; the site may answer with a browser check")
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Site: %s\n", cfg.SiteRoot())
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Concurrent pages: %d\n", cfg.Download.ConcurrentPages)
	fmt.Printf("  Concurrent galleries: %d\n", cfg.Download.ConcurrentGalleries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "(default locations)"
	}
	return p
}
