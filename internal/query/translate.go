// Package query turns free-text security questions into Infinity Events
// filter expressions and absolute time windows. Parsing is pure: no network
// calls, and the clock is injectable.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"infinity-mcp/internal/models"
)

// MatchAll is the filter that places no constraint on the result set.
const MatchAll = "*"

// ProductUnknown is reported when no product phrase was recognized.
const ProductUnknown = "unknown"

// ProductAll is reported when the query asked for all events without
// naming a product.
const ProductAll = "all_products"

const defaultLookback = 24 * time.Hour

// timeframePatterns is scanned in order; the first match wins. The "last N"
// forms take priority over bare "N unit" forms.
var timeframePatterns = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`last\s+(\d+)\s*h(?:ours?)?`), time.Hour},
	{regexp.MustCompile(`last\s+(\d+)\s*d(?:ays?)?`), 24 * time.Hour},
	{regexp.MustCompile(`last\s+(\d+)\s*w(?:eeks?)?`), 7 * 24 * time.Hour},
	{regexp.MustCompile(`(\d+)\s*h(?:ours?)?`), time.Hour},
	{regexp.MustCompile(`(\d+)\s*d(?:ays?)?`), 24 * time.Hour},
	{regexp.MustCompile(`(\d+)\s*w(?:eeks?)?`), 7 * 24 * time.Hour},
}

// productCatalog lists the recognized product-name phrases in priority
// order. New products are added here; the matching loop never changes.
var productCatalog = []string{
	"harmony sase",
	"harmony connect",
	"harmony endpoint",
	"harmony mobile",
	"harmony email",
	"harmony browse",
	"quantum smart-1 cloud",
	"quantum spark",
}

var productPatterns = compileProductPatterns(productCatalog)

func compileProductPatterns(catalog []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(catalog))
	for i, name := range catalog {
		// internal whitespace is flexible in the query text
		patterns[i] = regexp.MustCompile(strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`))
	}
	return patterns
}

// allEventsPhrases short-circuit clause extraction: the query wants the
// whole event stream, optionally narrowed to one product.
var allEventsPhrases = []string{
	"all events",
	"all security events",
	"all logs",
}

// severityRules is evaluated top to bottom; the first satisfied rule wins,
// so severities are mutually exclusive per query.
var severityRules = []struct {
	terms  []string
	clause string
}{
	{[]string{"critical", "high"}, `(severity:"Critical" OR severity:"High")`},
	{[]string{"critical"}, `severity:"Critical"`},
	{[]string{"high"}, `severity:"High"`},
	{[]string{"medium"}, `severity:"Medium"`},
	{[]string{"low"}, `severity:"Low"`},
}

var (
	srcIPPattern = regexp.MustCompile(`(?:src|source)\s*[:\s]\s*((?:\d{1,3}\.){3}\d{1,3})`)
	dstIPPattern = regexp.MustCompile(`(?:dst|dest|destination)\s*[:\s]\s*((?:\d{1,3}\.){3}\d{1,3})`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Translation is the structured form of one free-text query.
type Translation struct {
	Product string            // matched product name, ProductUnknown, or ProductAll
	Filter  string            // AND-joined filter expression, or MatchAll
	Window  models.TimeWindow // absolute UTC window
}

// Translator converts free-text query and timeframe strings. The zero
// Translator is not usable; construct with New.
type Translator struct {
	Now func() time.Time // injectable clock
}

func New() *Translator {
	return &Translator{Now: time.Now}
}

// Translate parses both the query and the timeframe text. It never fails:
// unparseable input degrades to a match-all filter and a 24-hour window.
func (t *Translator) Translate(query, timeframeText string) Translation {
	product, filter := t.ParseFilter(query)
	return Translation{
		Product: product,
		Filter:  filter,
		Window:  t.ParseTimeframe(timeframeText),
	}
}

// ParseTimeframe resolves phrasings like "last 24 hours", "7 days" or
// "2 weeks" against the current clock. Anything unrecognized falls back to
// a 24-hour lookback.
func (t *Translator) ParseTimeframe(timeframeText string) models.TimeWindow {
	now := t.Now().UTC()
	lookback := defaultLookback

	lower := strings.ToLower(timeframeText)
	for _, p := range timeframePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			lookback = time.Duration(n) * p.unit
		}
		// first match wins even if its value was unparseable
		break
	}

	return models.TimeWindow{
		StartTime: now.Add(-lookback).Format(models.TimeLayout),
		EndTime:   now.Format(models.TimeLayout),
	}
}

// ParseFilter extracts product, severity and IP clauses from the query and
// ANDs them in fixed order. It returns the matched product name alongside
// the filter expression.
func (t *Translator) ParseFilter(query string) (string, string) {
	lower := strings.ToLower(query)

	product := ""
	for _, p := range productPatterns {
		if m := p.FindString(lower); m != "" {
			product = whitespace.ReplaceAllString(m, " ")
			break
		}
	}

	// "all events" style queries skip severity and IP extraction entirely
	for _, phrase := range allEventsPhrases {
		if strings.Contains(lower, phrase) {
			if product == "" {
				return ProductAll, MatchAll
			}
			return product, productClause(product)
		}
	}

	var parts []string
	if product != "" {
		parts = append(parts, productClause(product))
	}

	for _, rule := range severityRules {
		if containsAll(lower, rule.terms) {
			parts = append(parts, rule.clause)
			break
		}
	}

	if m := srcIPPattern.FindStringSubmatch(lower); m != nil {
		parts = append(parts, `src:"`+m[1]+`"`)
	}
	if m := dstIPPattern.FindStringSubmatch(lower); m != nil {
		parts = append(parts, `dst:"`+m[1]+`"`)
	}

	if product == "" {
		product = ProductUnknown
	}
	if len(parts) == 0 {
		return product, MatchAll
	}
	return product, strings.Join(parts, " AND ")
}

func productClause(product string) string {
	return `ci_app_name:"` + product + `"`
}

func containsAll(s string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(s, term) {
			return false
		}
	}
	return true
}
