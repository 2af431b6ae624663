package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nhdl/pkg/scraper"
	"nhdl/pkg/ui"
)

var singleCmd = &cobra.Command{
	Use:   "single <id>",
	Short: "Download one gallery by id",
	Long: `Download one gallery into <path>/<id>/.

If the directory already exists only missing pages are fetched, unless
--overwrite (fetch everything again) or --no-check-missing-pages (leave it
alone) is given.`,
	Example: `  # Download gallery 177013 into the current directory
  nhdl single 177013

  # Download into ./library, refetching every page
  nhdl single 177013 --path ./library --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runSingle,
}

func init() {
	rootCmd.AddCommand(singleCmd)
}

func runSingle(cmd *cobra.Command, args []string) error {
	id, err := parseGalleryID(args[0])
	if err != nil {
		return err
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	s, tracker, err := newScraper(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ui.PrintInfo("Gallery", args[0])
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	_, err = s.DownloadGallery(ctx, id, scraper.Progress{})
	tracker.PrintSummary()
	return err
}

func parseGalleryID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid gallery id %q", s)
	}
	return uint32(id), nil
}
