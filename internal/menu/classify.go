package menu

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LineType is the role a text line plays in the menu stream.
type LineType string

const (
	LineCategory      LineType = "CATEGORY"
	LineItemWithPrice LineType = "ITEM_WITH_PRICE"
	LineDescription   LineType = "DESCRIPTION"
)

// Line is a classified text line with its centroid normalized to [0,1]
// of the page width and height.
type Line struct {
	Text string   `json:"text"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Type LineType `json:"type"`
	Page int      `json:"page"`
}

// IsHeader reports whether text is a section header. Trailing whitespace,
// bullets, dashes, stars, colons and periods are ignored; text carrying a
// price is never a header.
func (r *Rules) IsHeader(text string) bool {
	t := r.headerTrim.ReplaceAllString(strings.TrimSpace(text), "")
	if r.dollarPrice.MatchString(t) || r.price.MatchString(t) || r.embedded.MatchString(t) {
		return false
	}
	return r.header.MatchString(t)
}

// Classify decides the type of a line from its text alone.
func (r *Rules) Classify(text string) LineType {
	switch {
	case r.IsHeader(text):
		return LineCategory
	case r.hasInlinePrice(text) || r.IsPriceOnly(text):
		return LineItemWithPrice
	default:
		return LineDescription
	}
}

// inlinePrice is a price found on an item line and the text around it.
type inlinePrice struct {
	price         string
	left          string
	right         string
	complimentary bool
}

const sideTrim = " .-–—"

func (r *Rules) hasInlinePrice(text string) bool {
	_, ok := r.splitInlinePrice(text)
	return ok
}

// splitInlinePrice locates the price token on a line. A trailing price
// (optionally chained with | for sizes) wins; otherwise the first
// currency-bearing price anywhere on the line is used. A trailing
// "complimentary" is a zero price.
func (r *Rules) splitInlinePrice(text string) (inlinePrice, bool) {
	if loc := r.compTail.FindStringIndex(text); loc != nil {
		return inlinePrice{
			price:         "0",
			left:          strings.Trim(text[:loc[0]], sideTrim),
			complimentary: true,
		}, true
	}
	loc := r.price.FindStringIndex(text)
	if loc == nil {
		loc = r.embedded.FindStringIndex(text)
	}
	if loc == nil {
		return inlinePrice{}, false
	}
	price := strings.TrimSpace(text[loc[0]:loc[1]])
	price = strings.TrimSpace(r.eachSuffix.ReplaceAllString(price, ""))
	return inlinePrice{
		price: price,
		left:  strings.Trim(text[:loc[0]], sideTrim),
		right: strings.Trim(text[loc[1]:], sideTrim),
	}, true
}

// LooksLikeName reports whether text reads like an item name rather than
// description prose: either a short capitalized word sequence with an
// optional parenthetical, or mostly-uppercase text of a few words.
func (r *Rules) LooksLikeName(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || r.IsHeader(t) || r.IsPriceOnly(t) {
		return false
	}
	if r.tagWords != nil {
		t = r.tagWords.ReplaceAllString(t, "")
	}
	t = r.nameSeparators.ReplaceAllString(t, " ")
	clean := strings.TrimSpace(r.Normalize(t))
	if clean == "" {
		return false
	}

	if n := utf8.RuneCountInString(clean); n >= 2 && n <= 60 &&
		!r.commaSpace.MatchString(clean) && r.nameLike.MatchString(clean) {
		return true
	}

	alpha, upper := 0, 0
	for _, c := range clean {
		if unicode.IsLetter(c) {
			alpha++
			if unicode.IsUpper(c) {
				upper++
			}
		}
	}
	if alpha < 3 || float64(upper)/float64(alpha) < 0.6 {
		return false
	}
	words := strings.Fields(clean)
	if len(words) < 1 || len(words) > 8 {
		return false
	}
	for _, w := range words {
		if r.longDigits.MatchString(w) {
			return false
		}
	}
	return true
}
