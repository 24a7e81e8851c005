package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"menuscan/internal/logger"
)

var linesCmd = &cobra.Command{
	Use:   "lines [menu-file]",
	Short: "Show the classified lines of a menu before parsing",
	Long: `Run layout analysis on a menu document and print every recognized
line with its page, normalized centroid and line type (CATEGORY,
ITEM_WITH_PRICE or DESCRIPTION).

Use this to see why an item was split, merged or left without a price,
and to tune a rules file.`,
	Example: `  menuscan lines dinner.pdf
  menuscan lines dinner.pdf --format json --rules my-rules.toml`,
	Args: cobra.ExactArgs(1),
	RunE: runLines,
}

func init() {
	rootCmd.AddCommand(linesCmd)

	linesCmd.Flags().String("format", formatAuto, "Output format: auto, json or table")
}

func runLines(cmd *cobra.Command, args []string) error {
	menuPath := args[0]
	log := logger.WithFile("lines", filepath.Base(menuPath))

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	format, err := resolveFormat(format, out)
	if err != nil {
		return err
	}

	if _, err := validateMenuFile(menuPath, log); err != nil {
		return err
	}

	setupCtx, cancelSetup := createScanContext(time.Minute, log)
	defer cancelSetup()
	setup, err := newScanSetup(setupCtx, cmd, false, log)
	if err != nil {
		return err
	}
	defer setup.Close()

	ctx, cancel := createScanContext(time.Duration(setup.config.LayoutTimeoutSeconds)*time.Second, log)
	defer cancel()

	menuFile, err := os.Open(menuPath)
	if err != nil {
		return fmt.Errorf("failed to open menu file: %w", err)
	}
	defer menuFile.Close()

	lines, err := setup.service.Lines(ctx, menuFile, filepath.Base(menuPath))
	if err != nil {
		return handleScanError(err, log)
	}

	if format == formatTable {
		_, err := fmt.Fprintln(out, renderLinesTable(lines))
		return err
	}
	if lines == nil {
		return writeJSON(out, []any{})
	}
	return writeJSON(out, lines)
}
