package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menuscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "menuscan",
	Short: "menuscan - turn photographed or scanned menus into structured items",
	Long: `menuscan sends a menu image or PDF to a layout analysis service
(Google Document AI, Google Cloud Vision or a local Tesseract engine),
classifies the recognized lines and rebuilds the menu as categories,
item names, prices, descriptions and dietary tags.

Results are printed as JSON or as a table, can be appended to a Google
Sheet, and can be imported into a merchant's menu.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("rules", "", "Menu rules TOML file (default: $MENU_RULES_FILE, else built-in rules)")
}
