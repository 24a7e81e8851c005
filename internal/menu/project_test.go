package menu

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"menuscan/internal/layout"
)

func box(text string, x0, y0, x1, y1 float64) layout.TextLine {
	return layout.TextLine{
		Text: text,
		Polygon: []layout.Point{
			{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
		},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProject(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{{
		Number: 1,
		Width:  1000,
		Height: 2000,
		Lines: []layout.TextLine{
			box("ROSSONERO", 400, 50, 600, 90),
			box("STARTERS", 100, 300, 300, 340),
			box("Garlic Bread $8", 100, 400, 500, 440),
			{Text: "broken", Polygon: []layout.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}},
			box("   ", 100, 500, 200, 520),
			box("herb butter", 100, 460, 300, 480),
		},
	}}}

	lines := NewProjector(nil, zerolog.Nop()).Project(doc)
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %+v", len(lines), lines)
	}

	want := []struct {
		text string
		x, y float64
		typ  LineType
	}{
		{"STARTERS", 0.2, 0.16, LineCategory},
		{"Garlic Bread $8", 0.3, 0.21, LineItemWithPrice},
		{"herb butter", 0.2, 0.235, LineDescription},
	}
	for i, w := range want {
		got := lines[i]
		if got.Text != w.text || got.Type != w.typ || got.Page != 1 {
			t.Errorf("line %d = %+v, want %s %s", i, got, w.text, w.typ)
		}
		if !near(got.X, w.x) || !near(got.Y, w.y) {
			t.Errorf("line %d centroid = (%v, %v), want (%v, %v)", i, got.X, got.Y, w.x, w.y)
		}
	}
}

func TestProjectTitleOutsideBandKept(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{{
		Number: 1, Width: 100, Height: 100,
		Lines: []layout.TextLine{box("KINGS PARK", 10, 50, 90, 54)},
	}}}

	lines := NewProjector(nil, zerolog.Nop()).Project(doc)
	if len(lines) != 1 || lines[0].Text != "KINGS PARK" {
		t.Fatalf("lines = %+v", lines)
	}
}

func TestProjectSkipsInvalidPages(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{
		{Number: 1, Width: 0, Height: 100, Lines: []layout.TextLine{box("Caesar Salad", 1, 1, 5, 5)}},
		{Number: 2, Width: 100, Height: 100, Lines: []layout.TextLine{box("Caesar Salad", 10, 40, 40, 44)}},
	}}

	lines := NewProjector(nil, zerolog.Nop()).Project(doc)
	if len(lines) != 1 || lines[0].Page != 2 {
		t.Fatalf("lines = %+v", lines)
	}
}

func TestProjectEmpty(t *testing.T) {
	p := NewProjector(nil, zerolog.Nop())
	if lines := p.Project(nil); len(lines) != 0 {
		t.Errorf("nil document gave %d lines", len(lines))
	}
	if lines := p.Project(&layout.Document{}); len(lines) != 0 {
		t.Errorf("empty document gave %d lines", len(lines))
	}

	items, _ := NewParser(nil).Parse(p.Project(&layout.Document{}))
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", items)
	}
}

func TestProjectThenParseAcrossPages(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{
		{Number: 1, Width: 100, Height: 100, Lines: []layout.TextLine{
			box("DESSERTS", 10, 20, 40, 24),
			box("Lemon Tart", 10, 30, 40, 34),
			box("$12", 80, 30, 90, 34),
		}},
		{Number: 2, Width: 200, Height: 200, Lines: []layout.TextLine{
			box("DRINKS", 20, 100, 80, 108),
			box("Espresso $4", 20, 120, 100, 128),
		}},
	}}

	lines := NewProjector(nil, zerolog.Nop()).Project(doc)
	items, _ := NewParser(nil).Parse(lines)
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Name != "Lemon Tart" || items[0].Price != "$12" || items[0].Category != "DESSERTS" {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].Name != "Espresso" || items[1].Price != "$4" || items[1].Category != "DRINKS" {
		t.Errorf("item 1 = %+v", items[1])
	}
}
