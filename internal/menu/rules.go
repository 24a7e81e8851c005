package menu

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidRules is returned when a rule set fails to compile.
var ErrInvalidRules = errors.New("invalid menu rules")

// Garnish is a phrase OCR tends to isolate on its own line that always
// belongs to the description of the item above it.
type Garnish struct {
	Pattern string `toml:"pattern"` // regular expression, matched case-insensitively against the whole line
	Display string `toml:"display"` // text appended to the description
}

// Thresholds holds the positional constants used by the parser.
type Thresholds struct {
	FooterNumberMax int     `toml:"footer_number_max"` // lone integers up to this value are page furniture
	FooterXLimit    float64 `toml:"footer_x_limit"`    // ...when centred left of this x
	TitleBand       float64 `toml:"title_band"`        // top band where banner titles are suppressed
	PriceXMargin    float64 `toml:"price_x_margin"`    // price line must sit this far right of the item centre
	PriceYThreshold float64 `toml:"price_y_threshold"` // maximum vertical distance for a price match
	SmallPriceMax   float64 `toml:"small_price_max"`   // bare numbers up to this value are not trusted as prices
}

// RuleSet is the editable, serializable form of the parser rules.
// Header and title entries are regular expression fragments matched
// case-insensitively against the whole (trimmed) line.
type RuleSet struct {
	Headers    []string   `toml:"headers"`
	Titles     []string   `toml:"titles"`
	Tags       []string   `toml:"tags"`
	Garnishes  []Garnish  `toml:"garnishes"`
	Thresholds Thresholds `toml:"thresholds"`
}

// DefaultRuleSet returns the built-in rule set.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Headers: []string{
			`STARTERS?`,
			`SALADS?`,
			`PASTA`,
			`KIDS\s+MENU\b.*`,
			`DESSERTS?`,
			`DRINKS?`,
			`TOPPINGS?`,
			`PIZZAS?`,
			`CLASSIC\s+PIZZAS?`,
			`SIGNATURE\s+PIZZAS?\b.*`,
			`SIDES?`,
			`EXTRAS?`,
			`ADD-?ONS?`,
			`MODIFICATIONS?`,
			`TO\s+START`,
			`ENTR[ÉE]ES?`,
			`MAINS?`,
			`CHARGRILLED`,
			`DIETARY\s+MODIFICATIONS?`,
			`BEVERAGES?`,
		},
		Titles: []string{
			`ROSSONERO`,
			`Menu\s*[-–—]\s*[A-Za-z]+\s*\d{4}`,
			`FRASER['’]S`,
			`KINGS\s+PARK`,
		},
		Tags: []string{"V", "VE", "VO", "GF", "GFO", "DF", "DFO", "VG", "VEO", "NFO"},
		Garnishes: []Garnish{
			{Pattern: `dijon\s+a[iï]oli`, Display: "Dijon aioli"},
		},
		Thresholds: Thresholds{
			FooterNumberMax: 5,
			FooterXLimit:    0.75,
			TitleBand:       0.12,
			PriceXMargin:    0.02,
			PriceYThreshold: 0.035,
			SmallPriceMax:   9,
		},
	}
}

// price token building blocks
const (
	priceNumber = `\d{1,3}(?:\.\d{1,2})?`
	priceToken  = `\$?\s*\b` + priceNumber + `\s*(?:ea|each)?`
	dollarToken = `\$\s*\b` + priceNumber + `(?:\s*(?:ea|each)\b)?`
)

// Rules is the compiled, immutable form of a RuleSet. A Rules value is safe
// for concurrent use; the parser, classifier and normalizer only read it.
type Rules struct {
	set    RuleSet
	tagSet map[string]struct{}

	header      *regexp.Regexp
	headerTrim  *regexp.Regexp
	title       *regexp.Regexp
	garnishes   []*regexp.Regexp
	tagWords    *regexp.Regexp
	price       *regexp.Regexp // trailing, possibly chained with |
	dollarPrice *regexp.Regexp
	embedded    *regexp.Regexp // currency-bearing price anywhere
	compTail    *regexp.Regexp
	priceOnly   *regexp.Regexp
	comp        *regexp.Regexp
	eachSuffix  *regexp.Regexp
	firstNumber *regexp.Regexp
	anyNumber   *regexp.Regexp
	footerNum   *regexp.Regexp

	// normalizer
	replacement   *regexp.Regexp
	iconTail      *regexp.Regexp
	trailingToken *regexp.Regexp
	emptyParens   *regexp.Regexp
	endNumber     *regexp.Regexp
	multiSpace    *regexp.Regexp

	// name heuristic
	nameSeparators *regexp.Regexp
	nameLike       *regexp.Regexp
	commaSpace     *regexp.Regexp
	longDigits     *regexp.Regexp
	splitTags      *regexp.Regexp
}

// DefaultRules compiles the built-in rule set.
func DefaultRules() *Rules {
	r, err := Compile(DefaultRuleSet())
	if err != nil {
		panic(fmt.Sprintf("menu: default rules do not compile: %v", err))
	}
	return r
}

// LoadRules reads a TOML rule file. Keys present in the file replace the
// built-in values; absent keys keep their defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	set := DefaultRuleSet()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidRules, path, err)
	}
	return Compile(set)
}

// Compile validates a rule set and compiles its patterns.
func Compile(set RuleSet) (*Rules, error) {
	if len(set.Headers) == 0 {
		return nil, fmt.Errorf("%w: at least one header pattern is required", ErrInvalidRules)
	}
	th := set.Thresholds
	if th.PriceYThreshold <= 0 || th.TitleBand < 0 || th.TitleBand > 1 || th.FooterXLimit < 0 || th.FooterXLimit > 1 {
		return nil, fmt.Errorf("%w: thresholds out of range", ErrInvalidRules)
	}

	r := &Rules{set: set, tagSet: make(map[string]struct{}, len(set.Tags))}
	tags := make([]string, 0, len(set.Tags))
	for _, t := range set.Tags {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := r.tagSet[t]; dup {
			continue
		}
		r.tagSet[t] = struct{}{}
		tags = append(tags, t)
	}
	// longest first so VEO wins over VE in alternations
	sort.Slice(tags, func(i, j int) bool {
		if len(tags[i]) != len(tags[j]) {
			return len(tags[i]) > len(tags[j])
		}
		return tags[i] < tags[j]
	})

	var errs []error
	must := func(name, expr string) *regexp.Regexp {
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %v", name, err))
		}
		return re
	}

	r.header = must("headers", `(?i)^\s*(?:`+strings.Join(set.Headers, "|")+`)\s*$`)
	r.headerTrim = must("header trim", `[\s•·\-–—*:.]+$`)
	if len(set.Titles) > 0 {
		r.title = must("titles", `(?i)^\s*(?:`+strings.Join(set.Titles, "|")+`)\s*$`)
	}
	for i, g := range set.Garnishes {
		r.garnishes = append(r.garnishes, must(fmt.Sprintf("garnishes[%d]", i), `(?i)^\s*(?:`+g.Pattern+`)\s*$`))
	}
	if len(tags) > 0 {
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = regexp.QuoteMeta(t)
		}
		r.tagWords = must("tags", `(?i)\b(?:`+strings.Join(quoted, "|")+`)\b`)
	}

	r.price = must("price", `(?i)`+priceToken+`(?:\s*\|\s*`+priceToken+`)*\s*$`)
	r.dollarPrice = must("dollar price", `(?i)\$\s*`+priceNumber+`\s*$`)
	r.embedded = must("embedded price", `(?i)`+dollarToken+`(?:\s*\|\s*`+dollarToken+`)*`)
	r.priceOnly = must("price only", `(?i)^\s*(?:`+priceToken+`|complimentary)\s*$`)
	r.comp = must("complimentary", `(?i)\bcomplimentary\b`)
	r.compTail = must("complimentary tail", `(?i)\s*\bcomplimentary\s*$`)
	r.eachSuffix = must("each suffix", `(?i)\s*(?:ea|each)\b[)\]}.,;:•·*–—-]*$`)
	r.firstNumber = must("first number", priceNumber)
	r.anyNumber = must("any number", `\d+(?:\.\d+)?`)
	r.footerNum = must("footer number", `^\d{1,2}$`)

	r.replacement = must("replacement", `\x{FFFD}+`)
	r.iconTail = must("icon tail", `[\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{FE0E}\x{FE0F}\x{2122}\x{00AE}\x{00B0}]+$`)
	r.trailingToken = must("trailing token", `\s+([A-Za-z]{1,2}|[%*\x{00B0}\x{2122}\x{00AE}\x{FF05}])$`)
	r.emptyParens = must("empty parens", `\(\s*[,/&|·.\-–—\s]*\)`)
	r.endNumber = must("end number", `\b(\d+(?:\.\d+)?)\s*$`)
	r.multiSpace = must("multi space", `\s{2,}`)

	r.nameSeparators = must("name separators", `[&/+\x{00B7}•]`)
	r.nameLike = must("name like", `^[A-Z][A-Za-z'&+/.\-]+(?:\s+[A-Za-z'&+/.\-]+){0,8}(?:\s*\([^()]+\))?\s*$`)
	r.commaSpace = must("comma space", `,\s`)
	r.longDigits = must("long digits", `\d{3,}`)
	r.splitTags = must("tag split", `[,\s/]+`)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, errors.Join(errs...))
	}
	return r, nil
}

// RuleSet returns a copy of the rule set the rules were compiled from.
func (r *Rules) RuleSet() RuleSet {
	set := r.set
	set.Headers = append([]string(nil), r.set.Headers...)
	set.Titles = append([]string(nil), r.set.Titles...)
	set.Tags = append([]string(nil), r.set.Tags...)
	set.Garnishes = append([]Garnish(nil), r.set.Garnishes...)
	return set
}

// Thresholds returns the positional thresholds.
func (r *Rules) Thresholds() Thresholds {
	return r.set.Thresholds
}

// IsTag reports whether token (case-insensitive) is in the dietary vocabulary.
func (r *Rules) IsTag(token string) bool {
	_, ok := r.tagSet[strings.ToUpper(token)]
	return ok
}

// IsTitle reports whether text is a document title banner.
func (r *Rules) IsTitle(text string) bool {
	return r.title != nil && r.title.MatchString(text)
}

// IsPriceOnly reports whether text holds nothing but a price or "complimentary".
func (r *Rules) IsPriceOnly(text string) bool {
	return r.priceOnly.MatchString(text)
}

// IsComplimentary reports whether text contains the word "complimentary".
func (r *Rules) IsComplimentary(text string) bool {
	return r.comp.MatchString(text)
}

// garnish returns the display text of the garnish phrase text is made of.
func (r *Rules) garnish(text string) (string, bool) {
	for i, re := range r.garnishes {
		if re.MatchString(text) {
			return r.set.Garnishes[i].Display, true
		}
	}
	return "", false
}

// EncodeTOML writes the rule set as TOML.
func (set RuleSet) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
