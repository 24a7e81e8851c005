package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"menuscan/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse [menu-file]",
	Short: "Extract menu items from a menu image or PDF",
	Long: `Run layout analysis on a menu document and rebuild its items.

Each item carries its category, name, raw price text, description and
dietary tags. Output is a JSON array (the default when stdout is not a
terminal) or a table (the default on a terminal).

Prices that the layout did not tie to an item can optionally be filled
by ChatGPT with --complete. Such prices are listed in the metadata
output and should be checked by a human.

Required environment variables (documentai provider):
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI OCR processor ID

Optional environment variables:
  LAYOUT_PROVIDER - documentai (default), vision or tesseract
  GOOGLE_CLOUD_LOCATION - Processing location (default: us)
  MENU_RULES_FILE - TOML file overriding the built-in menu rules
  PRICE_STRATEGY - greedy (default) or optimal
  OPENAI_API_KEY - Required for --complete`,
	Example: `  # Print items as JSON
  menuscan parse dinner.pdf --format json

  # Save items with processing metadata
  menuscan parse dinner.jpg --metadata -o dinner.json

  # Use the optimal price assignment and ChatGPT completion
  menuscan parse dinner.pdf --strategy optimal --complete`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().String("format", formatAuto, "Output format: auto, json or table")
	parseCmd.Flags().Bool("metadata", false, "Wrap items with file, provider and parse statistics (JSON only)")
	parseCmd.Flags().Bool("complete", false, "Ask ChatGPT for prices the layout left unassigned")
	parseCmd.Flags().String("strategy", "", "Price assignment strategy: greedy or optimal (default: $PRICE_STRATEGY)")
	parseCmd.Flags().Int("timeout", 0, "Processing timeout in seconds (default: $LAYOUT_TIMEOUT_SECONDS)")
}

func runParse(cmd *cobra.Command, args []string) error {
	menuPath := args[0]
	log := logger.WithFile("parse", filepath.Base(menuPath))

	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	withMetadata, _ := cmd.Flags().GetBool("metadata")
	complete, _ := cmd.Flags().GetBool("complete")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	out, closeOut, err := outputWriter(outputPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	format, err = resolveFormat(format, out)
	if err != nil {
		return err
	}
	if withMetadata && format == formatTable {
		format = formatJSON
	}

	if _, err := validateMenuFile(menuPath, log); err != nil {
		return err
	}

	setupCtx, cancelSetup := createScanContext(time.Minute, log)
	defer cancelSetup()
	setup, err := newScanSetup(setupCtx, cmd, complete, log)
	if err != nil {
		return err
	}
	defer setup.Close()

	timeout := time.Duration(setup.config.LayoutTimeoutSeconds) * time.Second
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	ctx, cancel := createScanContext(timeout, log)
	defer cancel()

	menuFile, err := os.Open(menuPath)
	if err != nil {
		return fmt.Errorf("failed to open menu file: %w", err)
	}
	defer func() {
		if closeErr := menuFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close menu file")
		}
	}()

	result, err := setup.service.ScanMenu(ctx, menuFile, filepath.Base(menuPath))
	if err != nil {
		return handleScanError(err, log)
	}

	switch {
	case withMetadata:
		return writeJSON(out, result)
	case format == formatTable:
		_, err := fmt.Fprintln(out, renderItemsTable(result.Items))
		return err
	default:
		return writeJSON(out, result.Items)
	}
}
