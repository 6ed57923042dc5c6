// Package amount extracts monetary values from loosely written text such as
// "50k", "2.5 lakh", "₹75,000" or "1 cr".
package amount

import (
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Multiplier is a scale word and the factor it applies.
type Multiplier struct {
	Word   string
	Factor int64
}

const (
	thousand = 1_000
	lakh     = 100_000
	crore    = 10_000_000
)

// Multipliers is the scale vocabulary in scan order: longest word first,
// alphabetical among words of equal length. The first word found in the text
// wins. A word only counts when it is not glued to other letters, so "make"
// does not read as "k" and "lacs" is never taken for "lac".
var Multipliers = sortVocabulary([]Multiplier{
	{"k", thousand},
	{"k.", thousand},
	{"thousand", thousand},
	{"thousands", thousand},
	{"lakh", lakh},
	{"lakhs", lakh},
	{"lac", lakh},
	{"lacs", lakh},
	{"lack", lakh},
	{"lacks", lakh},
	{"cr", crore},
	{"crore", crore},
	{"crores", crore},
})

// currencyMarkers are removed before the multiplier scan, longest first so
// "rupees" is not left as "upees" after stripping "rs".
var currencyMarkers = []string{"rupees", "rs", "₹"}

var (
	bareNumber    = regexp.MustCompile(`^\d*\.?\d+$`)
	decimalToken  = regexp.MustCompile(`\d*\.?\d+`)
	integerToken  = regexp.MustCompile(`\d+`)
	incomeContext = []string{"income", "salary", "earn", "earning", "per month", "monthly"}
)

func sortVocabulary(v []Multiplier) []Multiplier {
	slices.SortStableFunc(v, func(a, b Multiplier) int {
		if la, lb := len(a.Word), len(b.Word); la != lb {
			return lb - la
		}
		return strings.Compare(a.Word, b.Word)
	})
	return v
}

// Normalize lowercases, trims and drops "," digit separators.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(text), ",", ""))
}

// Parse converts free text into an integer amount.
// The boolean is false when no number could be extracted; callers must ask
// again rather than treat the zero value as an amount.
func Parse(text string) (int64, bool) {
	t := Normalize(text)
	if t == "" {
		return 0, false
	}

	if bareNumber.MatchString(t) {
		return truncate(t, 1)
	}

	for _, marker := range currencyMarkers {
		t = strings.ReplaceAll(t, marker, "")
	}

	for _, m := range Multipliers {
		if !containsWord(t, m.Word) {
			continue
		}
		if tok := decimalToken.FindString(t); tok != "" {
			if v, ok := truncate(tok, m.Factor); ok {
				return v, true
			}
		}
	}

	if tok := integerToken.FindString(t); tok != "" {
		return truncate(tok, 1)
	}
	return 0, false
}

// ParseIncome parses a monthly income statement. It also reports whether the
// text carried an income keyword ("salary", "per month", ...). Extraction is
// identical either way.
func ParseIncome(text string) (value int64, ok bool, hasContext bool) {
	t := Normalize(text)
	for _, k := range incomeContext {
		if strings.Contains(t, k) {
			hasContext = true
			break
		}
	}
	value, ok = Parse(t)
	return value, ok, hasContext
}

// containsWord reports whether word occurs in t with no letter directly
// before or after it. Digits may touch it, as in "20k" or "2.3cr".
func containsWord(t, word string) bool {
	for offset := 0; offset < len(t); {
		i := strings.Index(t[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if !isLetter(t, start-1) && !isLetter(t, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isLetter(t string, i int) bool {
	if i < 0 || i >= len(t) {
		return false
	}
	c := t[i]
	return c >= 'a' && c <= 'z'
}

func truncate(token string, factor int64) (int64, bool) {
	d, err := decimal.NewFromString(token)
	if err != nil {
		return 0, false
	}
	v := d.Mul(decimal.NewFromInt(factor)).Truncate(0)
	if !v.IsInteger() || v.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, false
	}
	return v.IntPart(), true
}

// Format renders d with the given number of decimal places and "," between
// groups of three integer digits, e.g. 16666.666 -> "16,666.67" for places 2.
func Format(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// maxAmount bounds parsed values so they stay well inside int64 once the
// underwriting rules multiply them.
const maxAmount = 1 << 52
