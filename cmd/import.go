package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"menuscan/internal/importer"
	"menuscan/internal/logger"
	"menuscan/pkg/models"
)

var importCmd = &cobra.Command{
	Use:   "import [items.json]",
	Short: "Import parsed menu items for a merchant",
	Long: `Turn parsed menu items into a merchant's menu categories and items.

The input is the JSON written by "menuscan parse" (the items array or the
--metadata object). Within one import:
  - items without a name are skipped
  - categories are matched case-insensitively and created on first sight
  - prices are resolved to cents; unreadable prices become 0.00 and are
    reported as low confidence
  - the first three dietary tags fill the item's feature slots
  - new items are available with an inventory of 0

All records are written in one transaction; any failure rolls the whole
batch back. Records are kept in memory and printed; persistence to a
database is left to the caller.`,
	Example: `  menuscan parse dinner.pdf -o dinner.json
  menuscan import dinner.json --merchant 42`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportOutput represents the JSON output structure for an import
type ImportOutput struct {
	BatchID       string         `json:"batch_id"`
	MerchantID    string         `json:"merchant_id"`
	Categories    []CategoryData `json:"categories"`
	Items         []ItemData     `json:"items"`
	Skipped       int            `json:"skipped"`
	LowConfidence []string       `json:"low_confidence"`
}

// CategoryData represents an imported menu category
type CategoryData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemData represents an imported menu item
type ItemData struct {
	ID              string    `json:"id"`
	CategoryID      string    `json:"category_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Price           int64     `json:"price_cents"`
	PriceConfidence string    `json:"price_confidence"`
	Features        []string  `json:"features"`
	Inventory       int       `json:"inventory"`
	Available       bool      `json:"available"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("merchant", "", "Merchant ID the menu belongs to [REQUIRED]")
	importCmd.Flags().String("format", formatAuto, "Output format: auto, json or table")

	importCmd.MarkFlagRequired("merchant")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	out := cmd.OutOrStdout()

	merchantID, _ := cmd.Flags().GetString("merchant")
	format, _ := cmd.Flags().GetString("format")
	format, err := resolveFormat(format, out)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read items file: %w", err)
	}
	items, err := decodeItems(data)
	if err != nil {
		return err
	}

	rules, err := loadMenuRules(cmd)
	if err != nil {
		return err
	}

	store := importer.NewMemoryStore()
	imp := importer.New(store, rules, importer.WithLogger(log))

	ctx, cancel := createScanContext(time.Minute, log)
	defer cancel()

	batch, err := imp.Import(ctx, merchantID, items)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	result := convertToImportOutput(batch, store.Categories(merchantID))

	if format == formatJSON {
		return writeJSON(out, result)
	}
	return printImportTable(out, batch, result)
}

// decodeItems accepts either an items array or a parse --metadata object.
func decodeItems(data []byte) ([]models.ParsedItem, error) {
	data = bytes.TrimSpace(data)
	var items []models.ParsedItem
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Items []models.ParsedItem `json:"items"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid items file: %w", err)
		}
		items = wrapped.Items
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid items file: %w", err)
	}
	return items, nil
}

// convertToImportOutput converts an import batch to its JSON output shape
func convertToImportOutput(batch *importer.Batch, categories []models.MenuCategory) ImportOutput {
	result := ImportOutput{
		BatchID:       batch.ID,
		MerchantID:    batch.MerchantID,
		Categories:    make([]CategoryData, 0, len(categories)),
		Items:         make([]ItemData, 0, len(batch.Items)),
		Skipped:       batch.Skipped,
		LowConfidence: []string{},
	}
	for _, c := range categories {
		result.Categories = append(result.Categories, CategoryData{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt})
	}
	for _, it := range batch.Items {
		features := []string{}
		for _, f := range []string{it.Feature1, it.Feature2, it.Feature3} {
			if f != "" {
				features = append(features, f)
			}
		}
		result.Items = append(result.Items, ItemData{
			ID:              it.ID,
			CategoryID:      it.CategoryID,
			Name:            it.Name,
			Description:     it.Description,
			Price:           it.Price,
			PriceConfidence: it.PriceConfidence,
			Features:        features,
			Inventory:       it.Inventory,
			Available:       it.Available,
			ImageURL:        it.ImageURL,
			CreatedAt:       it.CreatedAt,
		})
	}
	for _, it := range batch.LowConfidence() {
		result.LowConfidence = append(result.LowConfidence, it.Name)
	}
	return result
}

func printImportTable(out io.Writer, batch *importer.Batch, result ImportOutput) error {
	categoryNames := make(map[string]string, len(result.Categories))
	for _, c := range result.Categories {
		categoryNames[c.ID] = c.Name
	}

	rows := make([][]string, 0, len(batch.Items))
	for _, it := range batch.Items {
		rows = append(rows, []string{
			categoryNames[it.CategoryID],
			it.Name,
			fmt.Sprintf("%.2f", float64(it.Price)/100),
			it.PriceConfidence,
			it.Feature1, it.Feature2, it.Feature3,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Name", "Price", "Confidence", "Feature 1", "Feature 2", "Feature 3"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	fmt.Fprintf(out, "Batch: %s\n", batch.ID)
	fmt.Fprintf(out, "Items imported: %d, new categories: %d, skipped: %d\n",
		len(batch.Items), len(batch.NewCategories), batch.Skipped)
	if len(result.LowConfidence) > 0 {
		fmt.Fprintf(out, "Check these prices (defaulted to 0.00): %v\n", result.LowConfidence)
	}
	return nil
}
