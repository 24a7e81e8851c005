package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"menuscan/pkg/models"
)

// Store persists imported menus. WithTx runs fn inside one transaction:
// if fn returns an error nothing it wrote is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side of a store transaction.
type Tx interface {
	// FindCategory returns the merchant's category whose folded name is key,
	// or nil when there is none.
	FindCategory(ctx context.Context, merchantID, key string) (*models.MenuCategory, error)
	CreateCategory(ctx context.Context, key string, category *models.MenuCategory) error
	CreateItem(ctx context.Context, item *models.MenuItem) error
}

// memoryData is everything a MemoryStore holds.
type memoryData struct {
	categories map[string]models.MenuCategory // by merchant + folded name
	items      []models.MenuItem
	ids        map[string]struct{}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		categories: make(map[string]models.MenuCategory, len(d.categories)),
		items:      append([]models.MenuItem(nil), d.items...),
		ids:        make(map[string]struct{}, len(d.ids)),
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k := range d.ids {
		c.ids[k] = struct{}{}
	}
	return c
}

// MemoryStore is an in-process Store. Transactions work on a copy of the
// data which replaces the committed state only when fn succeeds.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			categories: make(map[string]models.MenuCategory),
			ids:        make(map[string]struct{}),
		},
	}
}

// WithTx implements Store. Transactions are serialized.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// Categories returns the merchant's categories ordered by name.
func (s *MemoryStore) Categories(merchantID string) []models.MenuCategory {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.MenuCategory
	for _, c := range s.data.categories {
		if c.MerchantID == merchantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Items returns the merchant's items in insertion order.
func (s *MemoryStore) Items(merchantID string) []models.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.MenuItem
	for _, it := range s.data.items {
		if it.MerchantID == merchantID {
			out = append(out, it)
		}
	}
	return out
}

type memoryTx struct {
	data *memoryData
}

func categoryKey(merchantID, key string) string {
	return merchantID + "\x00" + key
}

func (t *memoryTx) FindCategory(_ context.Context, merchantID, key string) (*models.MenuCategory, error) {
	c, ok := t.data.categories[categoryKey(merchantID, key)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memoryTx) CreateCategory(_ context.Context, key string, category *models.MenuCategory) error {
	if err := t.claim(category.ID); err != nil {
		return err
	}
	ck := categoryKey(category.MerchantID, key)
	if _, ok := t.data.categories[ck]; ok {
		return fmt.Errorf("category %q already exists: %w", category.Name, ErrDuplicateID)
	}
	t.data.categories[ck] = *category
	return nil
}

func (t *memoryTx) CreateItem(_ context.Context, item *models.MenuItem) error {
	if err := t.claim(item.ID); err != nil {
		return err
	}
	t.data.items = append(t.data.items, *item)
	return nil
}

func (t *memoryTx) claim(id string) error {
	if _, ok := t.data.ids[id]; ok {
		return fmt.Errorf("id %s: %w", id, ErrDuplicateID)
	}
	t.data.ids[id] = struct{}{}
	return nil
}
