package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhansen/plenarycrawl/internal/build"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "plenarycrawl",
	Short: "A crawler for parliamentary plenary documents.",
	Long: `plenarycrawl discovers, downloads and extracts structured data from a
legislature's published plenary documents: protocols, agendas and voting
records, tracked session-by-session against a Postgres-backed record of
what has already been crawled.`,
	Version: build.FullVersion(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (INI, YAML or JSON)")
	rootCmd.AddCommand(crawlerCmd)
	rootCmd.AddCommand(postprocessingCmd)
	rootCmd.AddCommand(indexingCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(downloadCmd)
}

func ResetFlags() {
	cfgFile = ""
}

func SetConfigFileForTest(path string) {
	cfgFile = path
}
