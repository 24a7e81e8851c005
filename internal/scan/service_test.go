package scan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"menuscan/internal/completion"
	"menuscan/internal/layout"
	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

type fakeAnalyzer struct {
	doc      *layout.Document
	err      error
	mimeType string
	body     string
}

func (f *fakeAnalyzer) Name() string { return "fake" }

func (f *fakeAnalyzer) Analyze(_ context.Context, r io.Reader, mimeType string) (*layout.Document, error) {
	data, _ := io.ReadAll(r)
	f.body = string(data)
	f.mimeType = mimeType
	return f.doc, f.err
}

type fakeCompleter struct {
	prices map[string]string
	err    error
	seen   []menu.Line
}

func (f *fakeCompleter) Complete(_ context.Context, items []models.ParsedItem, lines []menu.Line) ([]completion.Filled, error) {
	f.seen = lines
	if f.err != nil {
		return nil, f.err
	}
	var filled []completion.Filled
	for i := range items {
		if p, ok := f.prices[items[i].Name]; ok && items[i].Price == "" {
			items[i].Price = p
			filled = append(filled, completion.Filled{Index: i, Name: items[i].Name, Price: p})
		}
	}
	return filled, nil
}

func box(text string, x0, y0, x1, y1 float64) layout.TextLine {
	return layout.TextLine{
		Text: text,
		Polygon: []layout.Point{
			{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
		},
	}
}

func menuDocument() *layout.Document {
	return &layout.Document{Pages: []layout.Page{{
		Number: 1,
		Width:  1000,
		Height: 1000,
		Lines: []layout.TextLine{
			box("MAINS", 100, 90, 200, 110),
			box("Burger $12", 100, 190, 400, 210),
			box("Caesar Salad", 100, 290, 350, 310),
			box("$9", 800, 292, 850, 308),
			box("Soup", 100, 390, 200, 410),
		},
	}}}
}

func TestScanMenu(t *testing.T) {
	analyzer := &fakeAnalyzer{doc: menuDocument()}
	svc := NewService(analyzer, nil)

	result, err := svc.ScanMenu(context.Background(), strings.NewReader("%PDF-1.7 ..."), "dinner.pdf")
	if err != nil {
		t.Fatalf("ScanMenu: %v", err)
	}

	if analyzer.mimeType != "application/pdf" || analyzer.body != "%PDF-1.7 ..." {
		t.Errorf("analyzer got %q / %q", analyzer.mimeType, analyzer.body)
	}
	if result.FileName != "dinner.pdf" || result.Provider != "fake" || result.Pages != 1 {
		t.Errorf("metadata = %+v", result)
	}

	want := []struct{ name, price string }{
		{"Burger", "$12"},
		{"Caesar Salad", "$9"},
		{"Soup", ""},
	}
	if len(result.Items) != len(want) {
		t.Fatalf("items = %+v", result.Items)
	}
	for i, w := range want {
		it := result.Items[i]
		if it.Category != "MAINS" || it.Name != w.name || it.Price != w.price {
			t.Errorf("item %d = %+v, want %s %q", i, it, w.name, w.price)
		}
	}
	if result.Unpriced() != 1 || result.Completed != nil {
		t.Errorf("unpriced = %d, completed = %v", result.Unpriced(), result.Completed)
	}
	if result.Stats.GeometricMatches != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestScanMenuWithCompleter(t *testing.T) {
	completer := &fakeCompleter{prices: map[string]string{"Soup": "$7", "Burger": "$1"}}
	svc := NewService(&fakeAnalyzer{doc: menuDocument()}, nil, WithCompleter(completer))

	result, err := svc.ScanMenu(context.Background(), strings.NewReader("%PDF"), "dinner.pdf")
	if err != nil {
		t.Fatalf("ScanMenu: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("items = %+v", result.Items)
	}
	if got := result.Items[2].Price; got != "$7" {
		t.Errorf("Soup price = %q, want $7", got)
	}
	if got := result.Items[0].Price; got != "$12" {
		t.Errorf("Burger price = %q, want $12", got)
	}
	if len(result.Completed) != 1 || result.Completed[0] != "Soup" {
		t.Errorf("Completed = %v", result.Completed)
	}
	if len(completer.seen) != 5 {
		t.Errorf("completer saw %d lines, want 5", len(completer.seen))
	}
}

func TestScanMenuCompletionFailureKeepsItems(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("openai down")}
	svc := NewService(&fakeAnalyzer{doc: menuDocument()}, nil, WithCompleter(completer))

	result, err := svc.ScanMenu(context.Background(), strings.NewReader("%PDF"), "dinner.pdf")
	if err != nil {
		t.Fatalf("ScanMenu: %v", err)
	}
	if len(result.Items) != 3 || result.Completed != nil {
		t.Errorf("result = %+v", result)
	}
}

func TestScanMenuAnalyzerError(t *testing.T) {
	failure := layout.NewError("fake", "Analyze", layout.ErrServiceUnavailable, "timeout")
	svc := NewService(&fakeAnalyzer{err: failure}, nil)

	_, err := svc.ScanMenu(context.Background(), strings.NewReader("%PDF"), "dinner.pdf")
	if !errors.Is(err, layout.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestScanMenuEmptyDocument(t *testing.T) {
	svc := NewService(&fakeAnalyzer{doc: &layout.Document{}}, nil)

	result, err := svc.ScanMenu(context.Background(), strings.NewReader("%PDF"), "blank.pdf")
	if err != nil {
		t.Fatalf("ScanMenu: %v", err)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", result.Items)
	}
}

func TestLines(t *testing.T) {
	svc := NewService(&fakeAnalyzer{doc: menuDocument()}, nil)

	lines, err := svc.Lines(context.Background(), strings.NewReader("%PDF"), "dinner.pdf")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(lines))
	}
	if lines[0].Type != menu.LineCategory || lines[1].Type != menu.LineItemWithPrice || lines[3].Type != menu.LineItemWithPrice {
		t.Errorf("types = %v %v %v", lines[0].Type, lines[1].Type, lines[3].Type)
	}
}
