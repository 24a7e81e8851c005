package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestImporter(store Store) *Importer {
	return New(store, nil, WithIDGenerator(sequentialIDs()), WithClock(func() time.Time { return fixedTime }))
}

func strPtr(s string) *string { return &s }

func TestImport(t *testing.T) {
	store := NewMemoryStore()
	imp := newTestImporter(store)

	items := []models.ParsedItem{
		{Category: "Starters", Name: "Bruschetta", Price: "$8", Description: strPtr("tomato, basil"), Tags: []string{"v"}},
		{Category: "STARTERS", Name: "Olives", Price: "Complimentary", Tags: []string{}},
		{Category: "Mains", Name: "  ", Price: "$20", Tags: []string{}},
		{Category: "Mains", Name: "Risotto", Price: "", Tags: []string{"gf", "v", "gf", "vg"}},
		{Category: "", Name: "Mystery", Price: "$12 | $18", Tags: []string{"df", "gf", "v", "vg"}},
	}

	batch, err := imp.Import(context.Background(), "m1", items)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if batch.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", batch.Skipped)
	}
	if len(batch.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(batch.Items))
	}

	var names []string
	for _, c := range batch.NewCategories {
		names = append(names, c.Name)
	}
	if fmt.Sprint(names) != "[Starters Mains UNCATEGORIZED]" {
		t.Errorf("new categories = %v", names)
	}

	bruschetta, olives, risotto, mystery := batch.Items[0], batch.Items[1], batch.Items[2], batch.Items[3]
	if bruschetta.CategoryID != olives.CategoryID {
		t.Errorf("case-folded categories should match: %s vs %s", bruschetta.CategoryID, olives.CategoryID)
	}
	if bruschetta.Price != 800 || bruschetta.Description != "tomato, basil" || bruschetta.Feature1 != "v" {
		t.Errorf("bruschetta = %+v", bruschetta)
	}
	if !bruschetta.Available || bruschetta.Inventory != 0 || !bruschetta.CreatedAt.Equal(fixedTime) {
		t.Errorf("bruschetta defaults = %+v", bruschetta)
	}
	if olives.Price != 0 || olives.PriceConfidence != string(menu.ConfidenceComplimentary) {
		t.Errorf("olives = %+v", olives)
	}
	if risotto.Price != 0 || risotto.PriceConfidence != string(menu.ConfidenceDefaulted) {
		t.Errorf("risotto = %+v", risotto)
	}
	if risotto.Feature1 != "gf" || risotto.Feature2 != "v" || risotto.Feature3 != "vg" {
		t.Errorf("risotto features = %q %q %q", risotto.Feature1, risotto.Feature2, risotto.Feature3)
	}
	if mystery.Price != 1200 || mystery.Feature3 != "v" {
		t.Errorf("mystery = %+v", mystery)
	}

	low := batch.LowConfidence()
	if len(low) != 1 || low[0].Name != "Risotto" {
		t.Errorf("LowConfidence = %+v", low)
	}

	if got := len(store.Items("m1")); got != 4 {
		t.Errorf("stored items = %d, want 4", got)
	}
	if got := len(store.Categories("m1")); got != 3 {
		t.Errorf("stored categories = %d, want 3", got)
	}
}

func TestImportReusesExistingCategories(t *testing.T) {
	store := NewMemoryStore()
	imp := newTestImporter(store)
	ctx := context.Background()

	if _, err := imp.Import(ctx, "m1", []models.ParsedItem{{Category: "Desserts", Name: "Tiramisu", Price: "9"}}); err != nil {
		t.Fatal(err)
	}
	batch, err := imp.Import(ctx, "m1", []models.ParsedItem{{Category: "DESSERTS", Name: "Gelato", Price: "6"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.NewCategories) != 0 {
		t.Errorf("second import created %v", batch.NewCategories)
	}
	cats := store.Categories("m1")
	if len(cats) != 1 || cats[0].Name != "Desserts" {
		t.Errorf("categories = %+v", cats)
	}

	// Other merchants get their own categories.
	other, err := imp.Import(ctx, "m2", []models.ParsedItem{{Category: "Desserts", Name: "Flan", Price: "5"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(other.NewCategories) != 1 {
		t.Errorf("m2 categories = %+v", other.NewCategories)
	}
}

type failingStore struct {
	*MemoryStore
	failAfter int
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.MemoryStore.WithTx(ctx, func(tx Tx) error {
		return fn(&failingTx{Tx: tx, left: s.failAfter})
	})
}

type failingTx struct {
	Tx
	left int
}

var errDiskFull = errors.New("disk full")

func (t *failingTx) CreateItem(ctx context.Context, item *models.MenuItem) error {
	if t.left == 0 {
		return errDiskFull
	}
	t.left--
	return t.Tx.CreateItem(ctx, item)
}

func TestImportRollsBackOnStoreError(t *testing.T) {
	mem := NewMemoryStore()
	imp := newTestImporter(failingStore{MemoryStore: mem, failAfter: 1})

	items := []models.ParsedItem{
		{Category: "Mains", Name: "Steak", Price: "$30"},
		{Category: "Sides", Name: "Fries", Price: "$5"},
	}
	batch, err := imp.Import(context.Background(), "m1", items)
	if err == nil {
		t.Fatalf("expected error, got batch %+v", batch)
	}
	if !errors.Is(err, ErrStore) || !errors.Is(err, errDiskFull) {
		t.Errorf("err = %v, want ErrStore wrapping disk full", err)
	}
	var ierr *Error
	if !errors.As(err, &ierr) || ierr.Op != "CreateItem" || ierr.Details != "Fries" {
		t.Errorf("err = %#v", err)
	}
	if n := len(mem.Items("m1")); n != 0 {
		t.Errorf("items after rollback = %d, want 0", n)
	}
	if n := len(mem.Categories("m1")); n != 0 {
		t.Errorf("categories after rollback = %d, want 0", n)
	}
}

func TestImportRequiresMerchant(t *testing.T) {
	imp := newTestImporter(NewMemoryStore())
	if _, err := imp.Import(context.Background(), " ", nil); !errors.Is(err, ErrMissingMerchant) {
		t.Errorf("err = %v, want ErrMissingMerchant", err)
	}
}

func TestImportCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := newTestImporter(NewMemoryStore())
	_, err := imp.Import(ctx, "m1", []models.ParsedItem{{Name: "Tea"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrStore) {
		t.Errorf("cancellation should not be reported as a store error: %v", err)
	}
}

func TestMemoryStoreDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	err := store.WithTx(context.Background(), func(tx Tx) error {
		if err := tx.CreateItem(context.Background(), &models.MenuItem{ID: "x"}); err != nil {
			return err
		}
		return tx.CreateItem(context.Background(), &models.MenuItem{ID: "x"})
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
	if len(store.Items("")) != 0 {
		t.Error("failed transaction left items behind")
	}
}

func TestFeatureSlots(t *testing.T) {
	tests := []struct {
		tags []string
		want [3]string
	}{
		{nil, [3]string{}},
		{[]string{"v"}, [3]string{"v", "", ""}},
		{[]string{"gf", "gf", " ", "v"}, [3]string{"gf", "v", ""}},
		{[]string{"df", "gf", "v", "vg"}, [3]string{"df", "gf", "v"}},
	}
	for _, tt := range tests {
		a, b, c := featureSlots(tt.tags)
		if got := [3]string{a, b, c}; got != tt.want {
			t.Errorf("featureSlots(%q) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}
