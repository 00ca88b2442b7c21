package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"pinscraper/pkg/models"
	"pinscraper/pkg/ui"
)

var (
	// Pins command flags
	outputFormat string
	pinLimit     int
	oldestOnly   bool
	cacheFile    string
	noCache      bool
	cacheDir     string
	clearCache   bool
)

// pinsCmd represents the pins command
var pinsCmd = &cobra.Command{
	Use:   "pins <user> <board>",
	Short: "List the pins of a board, oldest first",
	Long: `Fetch the pins added to a board since the last run, merge them into the
board's cache and print the whole list, oldest first.

The cache lives at <cache directory>/<user>/<board>.json unless --cache names
another file. With --no-cache every run pages through the whole board.`,
	Example: `  # Print every pin of a board
  pinscraper pins alice recipes

  # Print the oldest pin only
  pinscraper pins alice recipes --oldest

  # Print the 10 most recent pins as JSON
  pinscraper pins alice recipes --limit 10 --format json`,
	Args: cobra.ExactArgs(2),
	RunE: runPins,
}

func init() {
	rootCmd.AddCommand(pinsCmd)

	pinsCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, yaml)")
	pinsCmd.Flags().IntVarP(&pinLimit, "limit", "n", 0, "print only the N most recently added pins")
	pinsCmd.Flags().BoolVar(&oldestOnly, "oldest", false, "print only the oldest pin")
	addCacheFlags(pinsCmd)
}

// addCacheFlags registers the cache flags shared by pins and download
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cacheFile, "cache", "", "cache file for this board")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or write the pin cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory holding per-board cache files")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "delete the board's cache file before fetching")
}

func cacheFlags(cmd *cobra.Command, flags map[string]interface{}) {
	if noCache {
		flags["no-cache"] = true
	}
	if cmd.Flags().Changed("cache-dir") {
		flags["cache-dir"] = cacheDir
	}
}

func runPins(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat); err != nil {
		return err
	}
	userName, boardName, err := boardArgs(args)
	if err != nil {
		return err
	}

	flags := globalFlags(cmd)
	cacheFlags(cmd, flags)
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
	log.InfoWithFields("pins fetched", map[string]interface{}{
		"user_name":  userName,
		"board_name": boardName,
		"pins":       len(pins),
	})

	return writePins(cmd.OutOrStdout(), selectPins(pins, pinLimit, oldestOnly), outputFormat)
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
	}
}

// selectPins narrows an oldest-first list for printing
func selectPins(pins []models.Pin, limit int, oldest bool) []models.Pin {
	if len(pins) == 0 {
		return pins
	}
	if oldest {
		return pins[:1]
	}
	if limit > 0 && limit < len(pins) {
		return pins[len(pins)-limit:]
	}
	return pins
}

// writePins prints pins in the requested format
func writePins(w io.Writer, pins []models.Pin, format string) error {
	switch format {
	case "json":
		if pins == nil {
			pins = []models.Pin{}
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(pins)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(pins); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, pin := range pins {
			line := ui.Cyan(strconv.FormatInt(pin.ID, 10)) + "  " + pin.ResourceLink
			if pin.Title != "" {
				line += "  " + ui.Dim(pin.Title)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}
