package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

// maxFeatures is the number of tag slots on a menu item.
const maxFeatures = 3

// Batch is the result of one import.
type Batch struct {
	ID         string
	MerchantID string
	// NewCategories lists the categories this batch created.
	NewCategories []models.MenuCategory
	Items         []models.MenuItem
	// Skipped counts parsed items dropped for having no name.
	Skipped   int
	CreatedAt time.Time
}

// LowConfidence returns the imported items whose price fell back to zero
// because the price text held no usable number.
func (b *Batch) LowConfidence() []models.MenuItem {
	var out []models.MenuItem
	for _, it := range b.Items {
		if it.PriceConfidence == string(menu.ConfidenceDefaulted) {
			out = append(out, it)
		}
	}
	return out
}

// Importer turns parsed menu items into persisted categories and items.
type Importer struct {
	store Store
	rules *menu.Rules
	newID func() string
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(i *Importer) { i.newID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(i *Importer) { i.now = fn }
}

// WithLogger sets the importer's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(i *Importer) { i.log = log }
}

// New creates an Importer writing to store. Nil rules means the defaults.
func New(store Store, rules *menu.Rules, opts ...Option) *Importer {
	if rules == nil {
		rules = menu.DefaultRules()
	}
	i := &Importer{
		store: store,
		rules: rules,
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import writes items for the merchant in one transaction. Items without a
// name are skipped. Categories are matched case-insensitively against the
// merchant's existing ones and created on first sight with that spelling.
// Any store error rolls the whole batch back.
func (i *Importer) Import(ctx context.Context, merchantID string, items []models.ParsedItem) (*Batch, error) {
	const op = "Import"

	batch := &Batch{
		ID:         i.newID(),
		MerchantID: merchantID,
		CreatedAt:  i.now(),
	}
	if strings.TrimSpace(merchantID) == "" {
		return nil, WrapError(batch.ID, op, ErrMissingMerchant, "")
	}

	// A Caser keeps state and is not safe for concurrent use.
	fold := cases.Fold()

	err := i.store.WithTx(ctx, func(tx Tx) error {
		resolved := make(map[string]string) // folded name -> category id
		for _, p := range items {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				batch.Skipped++
				continue
			}

			categoryID, err := i.resolveCategory(ctx, tx, batch, fold, resolved, p.Category)
			if err != nil {
				return err
			}

			price := i.rules.ResolvePrice(p.Price)
			item := models.MenuItem{
				ID:              i.newID(),
				MerchantID:      merchantID,
				CategoryID:      categoryID,
				Name:            name,
				Price:           int64(price.Amount),
				PriceConfidence: string(price.Confidence),
				Inventory:       0,
				Available:       true,
				CreatedAt:       batch.CreatedAt,
			}
			if p.Description != nil {
				item.Description = *p.Description
			}
			item.Feature1, item.Feature2, item.Feature3 = featureSlots(p.Tags)

			if err := tx.CreateItem(ctx, &item); err != nil {
				return WrapError(batch.ID, "CreateItem", fmt.Errorf("%w: %w", ErrStore, err), name)
			}
			batch.Items = append(batch.Items, item)
		}
		return nil
	})
	if err != nil {
		i.log.Error().
			Err(err).
			Str("batch_id", batch.ID).
			Str("merchant_id", merchantID).
			Msg("Import rolled back")
		var ierr *Error
		if errors.As(err, &ierr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, WrapError(batch.ID, op, err, "")
		}
		return nil, WrapError(batch.ID, op, fmt.Errorf("%w: %w", ErrStore, err), "transaction failed")
	}

	i.log.Info().
		Str("batch_id", batch.ID).
		Str("merchant_id", merchantID).
		Int("items", len(batch.Items)).
		Int("new_categories", len(batch.NewCategories)).
		Int("skipped", batch.Skipped).
		Int("low_confidence", len(batch.LowConfidence())).
		Msg("Import committed")

	return batch, nil
}

func (i *Importer) resolveCategory(ctx context.Context, tx Tx, batch *Batch, fold cases.Caser, resolved map[string]string, raw string) (string, error) {
	display := strings.TrimSpace(raw)
	if display == "" {
		display = menu.DefaultCategory
	}
	key := fold.String(display)
	if id, ok := resolved[key]; ok {
		return id, nil
	}

	existing, err := tx.FindCategory(ctx, batch.MerchantID, key)
	if err != nil {
		return "", WrapError(batch.ID, "FindCategory", fmt.Errorf("%w: %w", ErrStore, err), display)
	}
	if existing != nil {
		resolved[key] = existing.ID
		return existing.ID, nil
	}

	category := models.MenuCategory{
		ID:         i.newID(),
		MerchantID: batch.MerchantID,
		Name:       display,
		CreatedAt:  batch.CreatedAt,
	}
	if err := tx.CreateCategory(ctx, key, &category); err != nil {
		return "", WrapError(batch.ID, "CreateCategory", fmt.Errorf("%w: %w", ErrStore, err), display)
	}
	batch.NewCategories = append(batch.NewCategories, category)
	resolved[key] = category.ID
	return category.ID, nil
}

// featureSlots returns the first three distinct non-empty tags.
func featureSlots(tags []string) (string, string, string) {
	var slots [maxFeatures]string
	n := 0
	for _, tag := range tags {
		if n == maxFeatures {
			break
		}
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		dup := false
		for _, s := range slots[:n] {
			if s == tag {
				dup = true
				break
			}
		}
		if !dup {
			slots[n] = tag
			n++
		}
	}
	return slots[0], slots[1], slots[2]
}
