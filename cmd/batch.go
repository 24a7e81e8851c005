package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"menuscan/internal/layout"
	"menuscan/internal/logger"
	"menuscan/internal/menu"
	"menuscan/internal/sheets"
	"menuscan/pkg/services"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Parse every menu in a folder and export the items to Google Sheets",
	Long: `Parse all menu documents (PDF and images) in a folder with a pool of
parallel workers, print a summary and append one row per item to a
Google Sheet.

Rows carry the resolved price, its confidence (parsed, complimentary or
defaulted), the source file and the processing time. Files that fail are
written as error rows so nothing is silently lost.

Required environment variables:
  GOOGLE_SHEET_URL - Google Sheets URL to write results (unless --dry-run)

Optional environment variables:
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: Menu)
  BATCH_WORKERS - Number of parallel workers (default: 4)`,
	Example: `  # Parse a folder and write to the configured sheet
  menuscan batch ./menus

  # Parse only, keep one JSON file per menu
  menuscan batch ./menus --dry-run --out-dir ./parsed`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// menuJob is one menu file waiting for a worker.
type menuJob struct {
	Path  string
	Index int
}

// menuResult is the outcome of one menu file.
type menuResult struct {
	Filename string
	Result   *services.ScanResult
	Error    error
	Status   string // "success", "warning", "error"
	Index    int
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("dry-run", false, "Process files but don't write to Google Sheet")
	batchCmd.Flags().Int("workers", 0, "Number of parallel workers (default: $BATCH_WORKERS)")
	batchCmd.Flags().String("out-dir", "", "Also write each menu's items as JSON into this folder")
	batchCmd.Flags().String("sheet", "", "Worksheet name (default: $GOOGLE_SHEET_WORKSHEET)")
	batchCmd.Flags().Bool("complete", false, "Ask ChatGPT for prices the layout left unassigned")
	batchCmd.Flags().String("strategy", "", "Price assignment strategy: greedy or optimal (default: $PRICE_STRATEGY)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")
	out := cmd.OutOrStdout()

	folderPath := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	workers, _ := cmd.Flags().GetInt("workers")
	outDir, _ := cmd.Flags().GetString("out-dir")
	sheetName, _ := cmd.Flags().GetString("sheet")
	complete, _ := cmd.Flags().GetBool("complete")

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	menuFiles, err := findMenuFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find menu files: %w", err)
	}
	if len(menuFiles) == 0 {
		fmt.Fprintln(out, "No menu files found in folder.")
		return nil
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", outDir, err)
		}
	}

	setupCtx, cancelSetup := createScanContext(time.Minute, log)
	defer cancelSetup()
	setup, err := newScanSetup(setupCtx, cmd, complete, log)
	if err != nil {
		return err
	}
	defer setup.Close()

	if workers <= 0 {
		workers = setup.config.BatchWorkers
	}
	if sheetName == "" {
		sheetName = setup.config.GoogleSheetWorksheet
	}
	if !dryRun && !setup.config.SheetsEnabled() {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required (or use --dry-run)")
	}

	log.Info().
		Str("folder", folderPath).
		Int("files", len(menuFiles)).
		Int("workers", workers).
		Bool("dry_run", dryRun).
		Msg("Starting batch processing")

	// Every file gets its own layout timeout; the whole batch may take longer.
	perFile := time.Duration(setup.config.LayoutTimeoutSeconds) * time.Second
	ctx, cancel := createScanContext(perFile*time.Duration(len(menuFiles)+1), log)
	defer cancel()

	fmt.Fprintf(out, "Processing %d menus with %d workers...\n", len(menuFiles), workers)
	results := processMenusInParallel(ctx, menuFiles, setup.service, workers, perFile, out, log)

	if outDir != "" {
		for _, r := range results {
			if r.Result == nil {
				continue
			}
			if err := writeItemsFile(outDir, r); err != nil {
				log.Warn().Err(err).Str("file", r.Filename).Msg("Failed to write items file")
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderBatchSummary(results))

	rows := batchRows(setup.rules, results, time.Now())
	if !dryRun {
		sheetsService, err := sheets.NewSheetsService(ctx, setup.config.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		if err := sheetsService.WriteItems(ctx, sheetName, rows); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		fmt.Fprintf(out, "Sheet: %s\n", sheetName)
		fmt.Fprintf(out, "Rows added: %d\n", len(rows))
	}

	counts := countStatuses(results)
	log.Info().
		Int("total", len(results)).
		Int("success", counts["success"]).
		Int("warnings", counts["warning"]).
		Int("errors", counts["error"]).
		Msg("Batch processing completed")

	return nil
}

// findMenuFiles finds all menu documents in the folder, sorted by path
func findMenuFiles(folderPath string) ([]string, error) {
	var files []string
	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && layout.SupportedExtension(info.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// processSingleMenu scans one menu file
func processSingleMenu(ctx context.Context, path string, svc services.MenuService, timeout time.Duration) menuResult {
	result := menuResult{Status: "error"}

	f, err := os.Open(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to open menu file: %w", err)
		return result
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scanned, err := svc.ScanMenu(ctx, f, filepath.Base(path))
	if err != nil {
		result.Error = err
		return result
	}

	result.Result = scanned
	result.Status = "success"
	if len(scanned.Items) == 0 || scanned.Unpriced() > 0 {
		result.Status = "warning"
	}
	return result
}

// processMenusInParallel processes menus using a worker pool
func processMenusInParallel(ctx context.Context, files []string, svc services.MenuService, numWorkers int, timeout time.Duration, out io.Writer, log zerolog.Logger) []menuResult {
	jobs := make(chan menuJob, len(files))
	results := make([]menuResult, len(files))

	var processed int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.Path).
					Int("index", job.Index+1).
					Msg("Worker processing menu")

				result := processSingleMenu(ctx, job.Path, svc, timeout)
				result.Index = job.Index
				result.Filename = filepath.Base(job.Path)
				results[job.Index] = result

				mu.Lock()
				processed++
				fmt.Fprintf(out, "[%d/%d] %s - %s", processed, len(files), result.Filename, result.Status)
				if result.Error != nil {
					fmt.Fprintf(out, " (%v)", result.Error)
				} else {
					fmt.Fprintf(out, " (%d items)", len(result.Result.Items))
				}
				fmt.Fprintln(out)
				mu.Unlock()
			}
		}(w)
	}

	for i, f := range files {
		jobs <- menuJob{Path: f, Index: i}
	}
	close(jobs)

	wg.Wait()
	return results
}

func countStatuses(results []menuResult) map[string]int {
	counts := make(map[string]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// batchRows flattens the batch into sheet rows in file order.
func batchRows(rules *menu.Rules, results []menuResult, at time.Time) []sheets.Row {
	var rows []sheets.Row
	for _, r := range results {
		if r.Error != nil {
			rows = append(rows, sheets.ErrorRow(r.Filename, r.Error, at))
			continue
		}
		rows = append(rows, sheets.RowsFromItems(rules, r.Filename, r.Result.Items, at)...)
	}
	return rows
}

func renderBatchSummary(results []menuResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		items, unpriced, completed := "", "", ""
		note := ""
		if r.Result != nil {
			items = fmt.Sprintf("%d", len(r.Result.Items))
			unpriced = fmt.Sprintf("%d", r.Result.Unpriced())
			completed = fmt.Sprintf("%d", len(r.Result.Completed))
		}
		if r.Error != nil {
			note = r.Error.Error()
		}
		rows = append(rows, []string{r.Filename, r.Status, items, unpriced, completed, note})
	}
	return renderTable(
		[]string{"File", "Status", "Items", "Unpriced", "Completed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func writeItemsFile(dir string, r menuResult) error {
	name := r.Filename[:len(r.Filename)-len(filepath.Ext(r.Filename))] + ".json"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := writeJSON(f, r.Result.Items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
