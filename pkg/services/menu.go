package services

import (
	"context"
	"io"
	"time"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

// MenuService defines the interface for turning menu documents into items
type MenuService interface {
	// ScanMenu runs layout analysis on a menu document and parses its items.
	// fileName is used for format detection and reporting only.
	ScanMenu(ctx context.Context, document io.Reader, fileName string) (*ScanResult, error)
}

// ScanResult is the outcome of scanning one menu document
type ScanResult struct {
	FileName string              `json:"file_name"`
	Provider string              `json:"provider"`
	Pages    int                 `json:"pages"`
	Items    []models.ParsedItem `json:"items"`
	Stats    menu.ParseStats     `json:"stats"`

	// Completed names the items whose price was filled by ChatGPT rather
	// than read from the layout. Their prices deserve a human check.
	Completed []string `json:"completed,omitempty"`

	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"processing_duration"`
}

// Unpriced counts items that still have no price text.
func (r *ScanResult) Unpriced() int {
	n := 0
	for _, it := range r.Items {
		if it.Price == "" {
			n++
		}
	}
	return n
}
