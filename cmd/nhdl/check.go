package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nhdl/pkg/config"
	"nhdl/pkg/metadata"
	"nhdl/pkg/storage"
	"nhdl/pkg/ui"
)

var cleanPartials bool

var checkCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "List pages of a downloaded gallery that are missing on disk",
	Long: `Read <path>/<id>/gallery.json and report which pages have no file yet.

No request is sent to the site. Run 'nhdl single <id>' afterwards to fetch
the missing pages.`,
	Example: `  nhdl check 177013 --path ./library

  # Also delete .part files left by an interrupted run
  nhdl check 177013 --clean`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&cleanPartials, "clean", false, "remove unfinished .part files")
}

func runCheck(cmd *cobra.Command, args []string) error {
	id, err := parseGalleryID(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}
	dir := store.GalleryDir(id)

	g, err := metadata.Load(dir)
	if err != nil {
		return fmt.Errorf("gallery %d has no readable snapshot: %w", id, err)
	}

	ui.PrintInfo("Gallery", fmt.Sprintf("%d [%s]", g.ID, g.DisplayTitle()))
	ui.PrintInfo("Directory", dir)

	if cleanPartials {
		removed, err := metadata.CleanPartials(dir)
		if err != nil {
			return err
		}
		ui.PrintInfo("Partial files removed", fmt.Sprint(removed))
	}

	missing := metadata.MissingPages(dir, g)
	present := g.Pages() - len(missing)
	ui.PrintInfo("Pages", ui.Bar(present, g.Pages()))

	if len(missing) == 0 {
		ui.PrintSuccess("All pages present")
		return nil
	}

	pages := make([]string, len(missing))
	for i, p := range missing {
		pages[i] = fmt.Sprint(p)
	}
	ui.PrintWarning("Missing pages", strings.Join(pages, ", "))
	return nil
}
