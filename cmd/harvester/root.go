package main

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	headless   bool
	outputDir  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Collect names from paginated, filtered listing pages in a logged-in browser",
	Long: `harvester opens a browser on the first configured filter and waits for you to
log in (and complete 2FA). After you press ENTER it pages through every filter's
listing, collects the configured field from each page, removes duplicates and
writes one CSV per filter.

Press Ctrl+C at any time to write what the current filter has collected so far.`,
	SilenceUsage: true,
	RunE:         runHarvest,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "config.json", "path to the config document (JSON or YAML)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for CSV output")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
