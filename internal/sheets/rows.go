package sheets

import (
	"fmt"
	"strings"
	"time"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

// Headers is the header row of a menu worksheet.
var Headers = []string{
	"Category", "Name", "Price", "Price Confidence",
	"Description", "Tags", "Source File", "Processed At",
}

const (
	columnRange = "A:H"
	headerRow   = "A1:H1"
)

// ProcessedAtLayout formats the Processed At column.
const ProcessedAtLayout = "2006-01-02 15:04:05"

// Row is one line of a menu worksheet.
type Row struct {
	Category        string
	Name            string
	Price           float64
	PriceConfidence string
	Description     string
	Tags            string
	SourceFile      string
	ProcessedAt     string
}

// Values converts the row to sheet cell values in header order.
func (r Row) Values() []interface{} {
	return []interface{}{
		r.Category,        // A: Category
		r.Name,            // B: Name
		r.Price,           // C: Price
		r.PriceConfidence, // D: Price Confidence
		r.Description,     // E: Description
		r.Tags,            // F: Tags
		r.SourceFile,      // G: Source File
		r.ProcessedAt,     // H: Processed At
	}
}

// RowsFromItems converts parsed items of one menu file into sheet rows.
// Items without a name are left out, as they would be on import.
func RowsFromItems(rules *menu.Rules, sourceFile string, items []models.ParsedItem, processedAt time.Time) []Row {
	if rules == nil {
		rules = menu.DefaultRules()
	}
	stamp := processedAt.Format(ProcessedAtLayout)

	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		price := rules.ResolvePrice(it.Price)
		row := Row{
			Category:        it.Category,
			Name:            it.Name,
			Price:           float64(price.Amount) / 100,
			PriceConfidence: string(price.Confidence),
			Tags:            strings.Join(it.Tags, ", "),
			SourceFile:      sourceFile,
			ProcessedAt:     stamp,
		}
		if it.Description != nil {
			row.Description = *it.Description
		}
		rows = append(rows, row)
	}
	return rows
}

// ErrorRow records a menu file that could not be processed.
func ErrorRow(sourceFile string, err error, processedAt time.Time) Row {
	return Row{
		Description: fmt.Sprintf("error: %v", err),
		SourceFile:  sourceFile,
		ProcessedAt: processedAt.Format(ProcessedAtLayout),
	}
}
