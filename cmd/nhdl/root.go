package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"nhdl/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	verbose         bool
	quiet           bool
	outputPath      string
	overwrite       bool
	noCheckMissing  bool
	accountName     string
	proxyURL        string
	galleryParallel int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nhdl",
	Short: "Download galleries and search results from nhentai",
	Long: `nhdl downloads galleries from nhentai, one by id or every gallery of a
search query, into <path>/<id>/ together with a gallery.json snapshot.

Features:
  - Up to 5 pages of a gallery fetched at once
  - Interrupted galleries resume with only the missing pages
  - Searches that point at a single gallery download just that gallery
  - Browser session cookies kept in the system keychain`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuiet(true)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./.nhdl.yaml or $HOME/.config/nhdl/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log everything (same as --log-level trace)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress terminal output except errors")
	flags.StringVarP(&outputPath, "path", "p", "", "directory galleries are saved under (default: current directory)")
	flags.BoolVarP(&overwrite, "overwrite", "x", false, "download every page again even if the file exists")
	flags.BoolVar(&noCheckMissing, "no-check-missing-pages", false, "leave galleries whose directory already exists untouched")
	flags.StringVarP(&accountName, "account", "a", "", "stored account whose cookie is sent to the site")
	flags.StringVar(&proxyURL, "proxy", "", "proxy url (http://, https:// or socks5://)")
	flags.IntVar(&galleryParallel, "galleries", 0, "galleries of a results page downloaded at once")

	rootCmd.MarkFlagsMutuallyExclusive("overwrite", "no-check-missing-pages")

	// Version template
	rootCmd.SetVersionTemplate(`nhdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
