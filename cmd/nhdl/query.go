package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nhdl/pkg/query"
	"nhdl/pkg/scraper"
	"nhdl/pkg/ui"
)

var (
	sortOrder string
	firstPage uint32
	lastPage  uint32
	pageCount uint32
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Download every gallery of a search",
	Long: `Run a search and download the galleries listed on its results pages.

Without --last-page or --count only the first page is downloaded. A count
of 0 means every page from --first-page to the end. If the site sends the
search straight to a gallery (for example "#177013") only that gallery is
downloaded.`,
	Example: `  # Galleries on the first results page
  nhdl query "tag:full color"

  # Pages 2 to 4 sorted by popularity this week
  nhdl query "artist:someone" --sort popular-week -f 2 -l 4

  # Every page
  nhdl query "language:english" --count 0`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&sortOrder, "sort", "s", "recent", "result order: recent, popular, popular-week, popular-today")
	queryCmd.Flags().Uint32VarP(&firstPage, "first-page", "f", 1, "first results page to download")
	queryCmd.Flags().Uint32VarP(&lastPage, "last-page", "l", 0, "last results page to download")
	queryCmd.Flags().Uint32VarP(&pageCount, "count", "n", 0, "number of results pages to download (0 = all)")
	queryCmd.MarkFlagsMutuallyExclusive("last-page", "count")
}

func runQuery(cmd *cobra.Command, args []string) error {
	sort, err := query.ParseSortOrder(sortOrder)
	if err != nil {
		return err
	}

	opts := scraper.QueryOptions{
		Text:      args[0],
		Sort:      sort,
		FirstPage: firstPage,
	}
	if cmd.Flags().Changed("last-page") {
		opts.LastPage = &lastPage
	}
	if cmd.Flags().Changed("count") {
		opts.Count = &pageCount
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

	ui.PrintInfo("Query", opts.Text)
	ui.PrintInfo("Sort", sort.String())
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	summary, err := s.DownloadQuery(ctx, opts)
	if summary != nil && !summary.Single {
		ui.PrintInfo("Results pages", fmt.Sprintf("%d downloaded, %d failed, %d available",
			summary.Pages, summary.FailedPages, summary.TotalPages))
	}
	tracker.PrintSummary()
	return err
}
