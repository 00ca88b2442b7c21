package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"pinscraper/internal/downloader"
	"pinscraper/pkg/models"
	"pinscraper/pkg/ratelimit"
	"pinscraper/pkg/retry"
	"pinscraper/pkg/storage"
	"pinscraper/pkg/ui"
)

var (
	// Download command flags
	outputDir  string
	concurrent int
	skipVideos bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <user> <board>",
	Short: "Download the images and videos of a board",
	Long: `Fetch the pins of a board like 'pins' does, then download every pin's
image or video into <output>/<user>/<board>/<pin id>.<ext>.

Files already present are skipped, so an interrupted download can simply be
run again.`,
	Example: `  # Download a board into ./pins/alice/recipes
  pinscraper download alice recipes

  # Use 5 concurrent downloads and skip videos
  pinscraper download alice recipes --concurrent 5 --skip-videos`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config: ./pins)")
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads (default from config: 3)")
	downloadCmd.Flags().BoolVar(&skipVideos, "skip-videos", false, "download images only")
	addCacheFlags(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	userName, boardName, err := boardArgs(args)
	if err != nil {
		return err
	}

	flags := globalFlags(cmd)
	cacheFlags(cmd, flags)
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if skipVideos {
		flags["skip-videos"] = true
	}

	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	path, err := boardCachePath(cfg, log, userName, boardName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := newClient(cfg, log)
	b, err := openBoard(ctx, client, log, userName, boardName, path)
	if err != nil {
		return err
	}

	pins, err := b.Pins(ctx)
	if err != nil {
		return err
	}
	if cfg.Download.SkipVideos {
		pins = withoutVideos(pins)
	}

	dir := filepath.Join(cfg.Download.OutputDirectory, userName, boardName)
	manager, err := storage.NewManager(dir)
	if err != nil {
		return err
	}

	ui.PrintBanner()
	ui.PrintInfo("Board", b.Identity().Key())
	ui.PrintInfo("Output", manager.OutputDir())
	if n := manager.DownloadedCount(); n > 0 {
		ui.PrintInfo("Already on disk", strconv.Itoa(n))
	}

	display := ui.NewProgressDisplay(cmd.OutOrStdout(), b.Identity().Key(), len(pins))
	poolCfg := downloader.Config{
		Workers: cfg.Download.ConcurrentDownloads,
		Timeout: cfg.Download.DownloadTimeout,
		Retry:   &retry.Config{MaxAttempts: cfg.Download.RetryAttempts},
	}
	limiter := ratelimit.NewInterval(cfg.Pinterest.RequestInterval)

	summary := downloader.Run(ctx, poolCfg, pins, client, manager, limiter, log, func(r downloader.DownloadResult) {
		switch {
		case r.Skipped:
			display.Skipped()
		case r.Success:
			display.Downloaded(r.Size)
		default:
			display.Failed(r.Job.Pin.ID, r.Error)
		}
	})
	display.Complete()

	log.InfoWithFields("download finished", map[string]interface{}{
		"board":      b.Identity().Key(),
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"bytes":      summary.Bytes,
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", summary.Failed, len(pins))
	}
	return nil
}

func withoutVideos(pins []models.Pin) []models.Pin {
	out := make([]models.Pin, 0, len(pins))
	for _, pin := range pins {
		if !pin.IsVideo() {
			out = append(out, pin)
		}
	}
	return out
}
