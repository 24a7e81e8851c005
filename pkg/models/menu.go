package models

import "time"

// ParsedItem is one menu entry reconstructed from a layout analysis.
// It is the parser's output contract and carries no persistence identity.
type ParsedItem struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`       // raw price text: "", "0", "$8", "$12 | $18"
	Description *string  `json:"description"` // nil when the entry has no description
	Tags        []string `json:"tags"`        // sorted dietary tags, never nil
}

// MenuCategory groups menu items for one merchant.
type MenuCategory struct {
	ID          string    // Unique category identifier
	MerchantID  string    // Owning merchant (tenant)
	Name        string    // Display name, first spelling seen in the import batch
	Description string    // Optional free text
	CreatedAt   time.Time // Record creation timestamp
}

// MenuItem is the persisted shape of a menu entry.
type MenuItem struct {
	// Core identifiers
	ID         string // Unique item identifier
	MerchantID string // Owning merchant (tenant)
	CategoryID string // MenuCategory.ID

	Name        string
	Description string

	// Price in cents to avoid float issues
	Price           int64
	PriceConfidence string // "parsed", "complimentary" or "defaulted"

	// Dietary tag slots, filled from the first three distinct tags
	Feature1 string
	Feature2 string
	Feature3 string

	Inventory int    // Units on hand, 0 until the merchant sets it
	Available bool   // Shown to customers
	ImageURL  string // Optional image reference

	CreatedAt time.Time
}
