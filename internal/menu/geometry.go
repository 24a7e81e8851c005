package menu

import (
	"math"
	"strings"
)

// infeasible is the assignment cost of a pair that violates the margin
// or threshold constraints.
const infeasible = 1e6

// assignGreedy gives each unpriced draft, in stream order, the closest free
// price-only line that lies to its right and within the vertical threshold.
// Each price line is used at most once. It returns the number of matches.
func (r *Rules) assignGreedy(drafts []*draft, prices []Line) int {
	if len(prices) == 0 {
		return 0
	}
	used := make([]bool, len(prices))
	matched := 0
	for _, d := range drafts {
		if d.price != "" {
			continue
		}
		best, bestDY := -1, math.Inf(1)
		for j, pl := range prices {
			if used[j] {
				continue
			}
			dy, ok := r.feasible(d, pl)
			if ok && dy < bestDY {
				best, bestDY = j, dy
			}
		}
		if best < 0 {
			continue
		}
		used[best] = true
		d.price = r.priceText(prices[best].Text)
		matched++
	}
	return matched
}

// assignOptimal matches unpriced drafts to price-only lines so that the sum
// of vertical distances over feasible pairs is minimal. Each price line is
// used at most once. It returns the number of matches.
func (r *Rules) assignOptimal(drafts []*draft, prices []Line) int {
	var open []*draft
	for _, d := range drafts {
		if d.price == "" {
			open = append(open, d)
		}
	}
	if len(open) == 0 || len(prices) == 0 {
		return 0
	}

	n := max(len(open), len(prices))
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			cost[i][j] = infeasible
			if i < len(open) && j < len(prices) {
				if dy, ok := r.feasible(open[i], prices[j]); ok {
					cost[i][j] = dy
				}
			}
		}
	}

	matched := 0
	for i, j := range hungarian(cost) {
		if i >= len(open) || j < 0 || j >= len(prices) || cost[i][j] >= infeasible {
			continue
		}
		open[i].price = r.priceText(prices[j].Text)
		matched++
	}
	return matched
}

// feasible reports whether price line pl may price d and returns their
// vertical distance.
func (r *Rules) feasible(d *draft, pl Line) (float64, bool) {
	th := r.set.Thresholds
	yc := (d.yTop + d.yBot) / 2
	dy := math.Abs(pl.Y - yc)
	if pl.X <= d.xCenter+th.PriceXMargin || dy > th.PriceYThreshold {
		return 0, false
	}
	return dy, true
}

// priceText is the price string recorded for a matched price-only line.
func (r *Rules) priceText(text string) string {
	if r.comp.MatchString(text) {
		return "0"
	}
	if m := r.price.FindString(text); m != "" {
		return strings.TrimSpace(r.eachSuffix.ReplaceAllString(strings.TrimSpace(m), ""))
	}
	return strings.TrimSpace(text)
}

// hungarian solves the square assignment problem for cost and returns,
// for each row, the assigned column.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j]: row matched to column j, 1-based
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], math.Inf(1), 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
