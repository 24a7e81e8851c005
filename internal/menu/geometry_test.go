package menu

import (
	"testing"

	"menuscan/pkg/models"
)

func TestAssignGreedyUsesEachPriceLineOnce(t *testing.T) {
	r := DefaultRules()
	drafts := []*draft{
		{name: "Caesar Salad", yTop: 0.40, yBot: 0.40, xCenter: 0.2},
		{name: "Greek Salad", yTop: 0.41, yBot: 0.41, xCenter: 0.2},
		{name: "Nicoise", yTop: 0.42, yBot: 0.42, xCenter: 0.2},
	}
	prices := []Line{
		{Text: "$9", X: 0.8, Y: 0.405},
		{Text: "$11", X: 0.8, Y: 0.415},
	}

	if got := r.assignGreedy(drafts, prices); got != 2 {
		t.Fatalf("matched %d, want 2", got)
	}
	if drafts[0].price != "$9" || drafts[1].price != "$11" || drafts[2].price != "" {
		t.Errorf("prices = %q %q %q", drafts[0].price, drafts[1].price, drafts[2].price)
	}
}

func TestAssignGreedyConstraints(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		name  string
		price Line
		want  string
	}{
		{"aligned right", Line{Text: "$12", X: 0.8, Y: 0.50}, "$12"},
		{"left of item", Line{Text: "$12", X: 0.1, Y: 0.50}, ""},
		{"inside x margin", Line{Text: "$12", X: 0.51, Y: 0.50}, ""},
		{"too far below", Line{Text: "$12", X: 0.8, Y: 0.55}, ""},
		{"complimentary", Line{Text: "complimentary", X: 0.8, Y: 0.51}, "0"},
		{"each suffix", Line{Text: "$4 ea", X: 0.8, Y: 0.50}, "$4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &draft{name: "Item", yTop: 0.49, yBot: 0.51, xCenter: 0.5}
			r.assignGreedy([]*draft{d}, []Line{tt.price})
			if d.price != tt.want {
				t.Errorf("price = %q, want %q", d.price, tt.want)
			}
		})
	}
}

func TestAssignSkipsPricedDrafts(t *testing.T) {
	r := DefaultRules()
	priced := &draft{name: "Burger", price: "$18", yTop: 0.3, yBot: 0.3, xCenter: 0.2}
	open := &draft{name: "Fries", yTop: 0.31, yBot: 0.31, xCenter: 0.2}

	if got := r.assignGreedy([]*draft{priced, open}, []Line{{Text: "$6", X: 0.8, Y: 0.305}}); got != 1 {
		t.Fatalf("matched %d, want 1", got)
	}
	if priced.price != "$18" || open.price != "$6" {
		t.Errorf("prices = %q %q", priced.price, open.price)
	}
}

// Greedy gives the first item its nearest line and strands the second;
// the optimal strategy prices both.
func TestAssignOptimalBeatsGreedy(t *testing.T) {
	lines := []Line{
		{Text: "$16", X: 0.85, Y: 0.37},
		{Text: "Caesar Salad", X: 0.3, Y: 0.40},
		{Text: "$14", X: 0.85, Y: 0.42},
		{Text: "Greek Salad", X: 0.3, Y: 0.45},
	}

	greedy, gs := NewParser(DefaultRules()).Parse(lines)
	assertItems(t, greedy, []models.ParsedItem{
		{Category: DefaultCategory, Name: "Caesar Salad", Price: "$14", Tags: []string{}},
		{Category: DefaultCategory, Name: "Greek Salad", Price: "", Tags: []string{}},
	})
	if gs.GeometricMatches != 1 || gs.Unpriced != 1 {
		t.Errorf("greedy stats = %+v", gs)
	}

	optimal, ostats := NewParser(DefaultRules(), WithStrategy(StrategyOptimal)).Parse(lines)
	assertItems(t, optimal, []models.ParsedItem{
		{Category: DefaultCategory, Name: "Caesar Salad", Price: "$16", Tags: []string{}},
		{Category: DefaultCategory, Name: "Greek Salad", Price: "$14", Tags: []string{}},
	})
	if ostats.GeometricMatches != 2 || ostats.Unpriced != 0 {
		t.Errorf("optimal stats = %+v", ostats)
	}
}

func TestAssignOptimalUsesEachPriceLineOnce(t *testing.T) {
	r := DefaultRules()
	drafts := []*draft{
		{name: "A", yTop: 0.40, yBot: 0.40, xCenter: 0.2},
		{name: "B", yTop: 0.40, yBot: 0.40, xCenter: 0.2},
		{name: "C", yTop: 0.90, yBot: 0.90, xCenter: 0.2},
	}
	prices := []Line{{Text: "$5", X: 0.8, Y: 0.40}}

	if got := r.assignOptimal(drafts, prices); got != 1 {
		t.Fatalf("matched %d, want 1", got)
	}
	n := 0
	for _, d := range drafts {
		if d.price == "$5" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("price line used %d times", n)
	}
	if drafts[2].price != "" {
		t.Errorf("infeasible draft priced %q", drafts[2].price)
	}
}

func TestHungarian(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	got := hungarian(cost)
	total := 0.0
	seen := map[int]bool{}
	for i, j := range got {
		if seen[j] {
			t.Fatalf("column %d assigned twice: %v", j, got)
		}
		seen[j] = true
		total += cost[i][j]
	}
	if total != 5 {
		t.Errorf("total cost = %v (%v), want 5", total, got)
	}
}
