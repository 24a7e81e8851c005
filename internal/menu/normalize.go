package menu

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// trimSet is stripped from both ends of normalized text.
const trimSet = " .,-–—:;/|"

// Normalize produces display-clean text from a raw OCR fragment: icon
// glyphs, trailing noise tokens that are not dietary tags, empty
// parenthetical groups and stray trailing one or two digit numbers are
// removed, whitespace is collapsed and edge punctuation trimmed.
//
// Normalize is idempotent.
func (r *Rules) Normalize(text string) string {
	if text == "" {
		return text
	}
	// NFC is stable after the first pass and every later step only
	// removes text, so the loop reaches a fixed point.
	t := text
	for {
		next := r.normalizePass(t)
		if next == t {
			break
		}
		t = next
	}
	return t
}

func (r *Rules) normalizePass(text string) string {
	t := r.replacement.ReplaceAllString(norm.NFC.String(text), "")
	t = r.iconTail.ReplaceAllString(t, "")

	for {
		m := r.trailingToken.FindStringSubmatchIndex(t)
		if m == nil {
			break
		}
		if r.IsTag(t[m[2]:m[3]]) {
			break
		}
		t = strings.TrimRight(t[:m[0]], " \t\r\n")
	}

	t = r.emptyParens.ReplaceAllString(t, "")

	if m := r.endNumber.FindStringSubmatchIndex(t); m != nil {
		num := t[m[2]:m[3]]
		if !strings.Contains(num, ".") && len(num) <= 2 {
			t = strings.TrimRight(t[:m[0]], " \t\r\n")
		}
	}

	t = r.multiSpace.ReplaceAllString(t, " ")
	return strings.Trim(t, trimSet)
}

// ExtractTags returns the sorted, deduplicated dietary tags found in text.
// Tokens are split on commas, whitespace and slashes and stripped of
// surrounding brackets and punctuation before lookup.
func (r *Rules) ExtractTags(text string) []string {
	seen := make(map[string]struct{})
	for _, w := range r.splitTags.Split(strings.ToUpper(text), -1) {
		w = strings.Trim(w, "()[]*;:.+")
		if w == "" {
			continue
		}
		if _, ok := r.tagSet[w]; ok {
			seen[w] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// StripTags removes every vocabulary tag in tags from text as a whole word,
// case-insensitively, and re-normalizes the result.
func (r *Rules) StripTags(text string, tags []string) string {
	if len(tags) == 0 || r.tagWords == nil {
		return text
	}
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[strings.ToUpper(t)] = struct{}{}
	}
	stripped := r.tagWords.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := want[strings.ToUpper(w)]; ok {
			return ""
		}
		return w
	})
	return r.Normalize(stripped)
}

// SplitName normalizes raw item text and separates its dietary tags.
func (r *Rules) SplitName(raw string) (name string, tags []string) {
	name = r.Normalize(raw)
	tags = r.ExtractTags(name)
	if len(tags) > 0 {
		name = r.StripTags(name, tags)
	}
	return name, tags
}
