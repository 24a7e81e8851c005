package menu

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"menuscan/pkg/models"
)

// DefaultCategory is the category of items seen before any header.
const DefaultCategory = "UNCATEGORIZED"

// Strategy selects how unpriced items are matched to standalone price lines.
type Strategy string

const (
	// StrategyGreedy walks items in stream order and gives each the closest
	// free price line.
	StrategyGreedy Strategy = "greedy"
	// StrategyOptimal minimizes the total vertical distance over all
	// feasible item/price pairs.
	StrategyOptimal Strategy = "optimal"
)

// ParseStrategy parses a strategy name. The empty string means greedy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyGreedy:
		return StrategyGreedy, nil
	case StrategyOptimal:
		return StrategyOptimal, nil
	default:
		return "", fmt.Errorf("unknown price strategy %q (want greedy or optimal)", s)
	}
}

// ParseStats summarizes one Parse call.
type ParseStats struct {
	Lines            int `json:"lines"`
	Skipped          int `json:"skipped"`
	Categories       int `json:"categories"`
	ItemsStarted     int `json:"items_started"`
	PriceOnlyLines   int `json:"price_only_lines"`
	GeometricMatches int `json:"geometric_matches"`
	Unpriced         int `json:"unpriced"`
}

// Parser turns classified lines into menu items. A Parser holds no
// per-call state and may be shared between goroutines.
type Parser struct {
	rules    *Rules
	strategy Strategy
	log      zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrategy sets the geometric price assignment strategy.
func WithStrategy(s Strategy) Option {
	return func(p *Parser) {
		if s != "" {
			p.strategy = s
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// NewParser creates a parser. A nil rules value uses DefaultRules.
func NewParser(rules *Rules, opts ...Option) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	p := &Parser{
		rules:    rules,
		strategy: StrategyGreedy,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rules returns the rules the parser was built with.
func (p *Parser) Rules() *Rules {
	return p.rules
}

// Strategy returns the configured price assignment strategy.
func (p *Parser) Strategy() Strategy {
	return p.strategy
}

// draft is the item being assembled.
type draft struct {
	category    string
	name        string
	price       string
	description string
	tags        []string

	yTop    float64
	yBot    float64
	xCenter float64
}

func (d *draft) appendDescription(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if d.description == "" {
		d.description = text
		return
	}
	d.description += " " + text
}

// parseState is owned by a single Parse call.
type parseState struct {
	category  string
	current   *draft
	output    []*draft
	priceOnly []Line
	stats     ParseStats
}

func (s *parseState) close() {
	if s.current != nil {
		s.output = append(s.output, s.current)
		s.current = nil
	}
}

func (s *parseState) open(d *draft) {
	s.close()
	s.current = d
	s.stats.ItemsStarted++
}

// Parse consumes lines top to bottom and returns the reconstructed items
// in stream order. Lines with an empty Type are classified first. Every
// item that was started is returned, including one whose name became empty
// after tag stripping; consumers decide whether to keep it.
func (p *Parser) Parse(lines []Line) ([]models.ParsedItem, ParseStats) {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	st := &parseState{category: DefaultCategory}
	st.stats.Lines = len(sorted)

	for _, ln := range sorted {
		p.step(st, ln)
	}
	st.close()

	var matched int
	switch p.strategy {
	case StrategyOptimal:
		matched = p.rules.assignOptimal(st.output, st.priceOnly)
	default:
		matched = p.rules.assignGreedy(st.output, st.priceOnly)
	}
	st.stats.GeometricMatches = matched

	items := make([]models.ParsedItem, 0, len(st.output))
	for _, d := range st.output {
		item := models.ParsedItem{
			Category: d.category,
			Name:     d.name,
			Price:    d.price,
			Tags:     d.tags,
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		if desc := strings.TrimSpace(d.description); desc != "" {
			item.Description = &desc
		}
		if item.Price == "" {
			st.stats.Unpriced++
		}
		items = append(items, item)
	}

	p.log.Debug().
		Int("lines", st.stats.Lines).
		Int("skipped", st.stats.Skipped).
		Int("categories", st.stats.Categories).
		Int("items", len(items)).
		Int("price_only_lines", st.stats.PriceOnlyLines).
		Int("geometric_matches", st.stats.GeometricMatches).
		Int("unpriced", st.stats.Unpriced).
		Str("strategy", string(p.strategy)).
		Msg("Menu parsed")

	return items, st.stats
}

func (p *Parser) step(st *parseState, ln Line) {
	r := p.rules
	text := strings.TrimSpace(ln.Text)
	if text == "" {
		st.stats.Skipped++
		return
	}
	if p.isFooterNumber(text, ln.X) || r.IsTitle(text) {
		st.stats.Skipped++
		return
	}

	typ := ln.Type
	if typ == "" {
		typ = r.Classify(text)
	}

	if typ == LineCategory {
		st.close()
		st.category = r.categoryName(text)
		st.stats.Categories++
		p.log.Debug().Str("category", st.category).Float64("y", ln.Y).Msg("Category")
		return
	}

	if display, ok := r.garnish(text); ok {
		if st.current != nil {
			st.current.appendDescription(display)
			st.current.yBot = ln.Y
		}
		return
	}

	if r.IsPriceOnly(text) {
		st.priceOnly = append(st.priceOnly, ln)
		st.stats.PriceOnlyLines++
		return
	}

	if typ == LineItemWithPrice {
		if ip, ok := r.splitInlinePrice(text); ok {
			p.inlineItem(st, ln, text, ip)
			return
		}
	}

	if r.LooksLikeName(text) {
		name, tags := r.SplitName(text)
		st.open(&draft{
			category: st.category,
			name:     name,
			tags:     tags,
			yTop:     ln.Y,
			yBot:     ln.Y,
			xCenter:  ln.X,
		})
		return
	}

	if st.current != nil {
		st.current.appendDescription(text)
		st.current.yBot = ln.Y
	}
}

func (p *Parser) inlineItem(st *parseState, ln Line, text string, ip inlinePrice) {
	r := p.rules

	if ip.left == "" && st.current != nil {
		st.current.price = ip.price
		st.current.appendDescription(ip.right)
		st.current.yBot = ln.Y
		return
	}

	if ip.left != "" && !ip.complimentary && r.isBareSmallNumber(ip.price) {
		// A bare small number next to a name is more often a portion or
		// page marker than a price; the whole line becomes the name and
		// pricing is left to the geometric pass.
		name, tags := r.SplitName(text)
		st.open(&draft{
			category: st.category,
			name:     name,
			tags:     tags,
			yTop:     ln.Y,
			yBot:     ln.Y,
			xCenter:  ln.X,
		})
		return
	}

	name, tags := r.SplitName(ip.left)
	st.open(&draft{
		category:    st.category,
		name:        name,
		price:       ip.price,
		description: ip.right,
		tags:        tags,
		yTop:        ln.Y,
		yBot:        ln.Y,
		xCenter:     ln.X,
	})
}

// isFooterNumber reports whether text is stray page numbering.
func (p *Parser) isFooterNumber(text string, x float64) bool {
	if !p.rules.footerNum.MatchString(text) {
		return false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return false
	}
	th := p.rules.Thresholds()
	return n <= th.FooterNumberMax && x < th.FooterXLimit
}

// isBareSmallNumber reports whether an extracted price has no currency
// symbol and a value no greater than SmallPriceMax.
func (r *Rules) isBareSmallNumber(price string) bool {
	if strings.Contains(price, "$") {
		return false
	}
	num := r.anyNumber.FindString(price)
	if num == "" {
		return false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return false
	}
	return v <= r.set.Thresholds.SmallPriceMax
}

// categoryName strips header decoration from a category line.
func (r *Rules) categoryName(text string) string {
	return strings.TrimSpace(r.headerTrim.ReplaceAllString(strings.TrimSpace(text), ""))
}
