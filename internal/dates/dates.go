// Package dates finds years, decades and relative time references in story
// text and reduces them to a single period for timeline placement.
package dates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Confidence grades how directly a date was stated
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// contextRadius is the number of bytes kept on either side of a match
const contextRadius = 50

// Date is a single temporal reference found in text. Zero numeric fields are
// absent.
type Date struct {
	Year       int        `json:"year,omitempty"`
	Month      int        `json:"month,omitempty"`
	Decade     int        `json:"decade,omitempty"`
	Era        string     `json:"era,omitempty"`
	Raw        string     `json:"raw"`
	Confidence Confidence `json:"confidence"`
	Context    string     `json:"context"`
}

// Key identifies a date for deduplication, using "-" for absent fields
func (d Date) Key() string {
	return field(d.Year) + "-" + field(d.Decade) + "-" + field(d.Month)
}

func field(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

// sortValue is the year if known, else the decade, else 0
func (d Date) sortValue() int {
	if d.Year != 0 {
		return d.Year
	}
	return d.Decade
}

var (
	yearRe   = regexp.MustCompile(`\b(19\d{2}|20[0-2]\d)\b`)
	decadeRe = regexp.MustCompile(`(?i)\b(19[2-9]0|20[0-2]0)s\b|['’]([2-9]0)s\b`)
	eraRe    = regexp.MustCompile(`(?i)\b(early|mid|late)[\s-]+(?:(19[2-9]0|20[0-2]0)|['’]([2-9]0))s\b`)
	monthRe  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december),?\s+(19\d{2}|20[0-2]\d)\b`)
	ageRe    = regexp.MustCompile(`(?i)\bwhen i was (\d{1,3})\b`)
	agoRe    = regexp.MustCompile(`(?i)\b(\d{1,3}) years? ago\b`)
)

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var eraOffsets = map[string]int{"early": 2, "mid": 5, "late": 8}

// Extractor scans text for dates relative to a clock
type Extractor struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (e Extractor) currentYear() int {
	if e.Now == nil {
		return time.Now().Year()
	}
	return e.Now().Year()
}

// Extract returns the deduplicated dates found in text, sorted ascending.
// birthYear enables "when I was N" references; pass 0 when unknown.
func Extract(text string, birthYear int) []Date {
	return Extractor{}.Extract(text, birthYear)
}

// Extract returns the deduplicated dates found in text, sorted ascending
func (e Extractor) Extract(text string, birthYear int) []Date {
	now := e.currentYear()
	var found []Date

	add := func(loc []int, d Date) {
		d.Raw = text[loc[0]:loc[1]]
		d.Context = excerpt(text, loc[0], loc[1])
		found = append(found, d)
	}

	for _, m := range yearRe.FindAllStringSubmatchIndex(text, -1) {
		year := atoi(text, m, 1)
		add(m, Date{Year: year, Decade: decadeOf(year), Confidence: High})
	}

	for _, m := range decadeRe.FindAllStringSubmatchIndex(text, -1) {
		var decade int
		if m[2] >= 0 {
			decade = atoi(text, m, 1)
		} else {
			// apostrophe decades are read as 19xx
			decade = 1900 + atoi(text, m, 2)
		}
		add(m, Date{Decade: decade, Era: text[m[0]:m[1]], Confidence: Medium})
	}

	for _, m := range eraRe.FindAllStringSubmatchIndex(text, -1) {
		var decade int
		if m[4] >= 0 {
			decade = atoi(text, m, 2)
		} else {
			decade = 1900 + atoi(text, m, 3)
		}
		modifier := strings.ToLower(text[m[2]:m[3]])
		add(m, Date{
			Year:       decade + eraOffsets[modifier],
			Decade:     decade,
			Era:        text[m[0]:m[1]],
			Confidence: Medium,
		})
	}

	for _, m := range monthRe.FindAllStringSubmatchIndex(text, -1) {
		year := atoi(text, m, 2)
		add(m, Date{
			Year:       year,
			Month:      months[strings.ToLower(text[m[2]:m[3]])],
			Decade:     decadeOf(year),
			Confidence: High,
		})
	}

	if birthYear > 0 {
		for _, m := range ageRe.FindAllStringSubmatchIndex(text, -1) {
			year := birthYear + atoi(text, m, 1)
			if year > now {
				continue
			}
			add(m, Date{Year: year, Decade: decadeOf(year), Confidence: Medium})
		}
	}

	for _, m := range agoRe.FindAllStringSubmatchIndex(text, -1) {
		year := now - atoi(text, m, 1)
		add(m, Date{Year: year, Decade: decadeOf(year), Confidence: Low})
	}

	return dedupe(found)
}

func dedupe(found []Date) []Date {
	seen := make(map[string]bool, len(found))
	out := make([]Date, 0, len(found))
	for _, d := range found {
		k := d.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].sortValue() < out[j].sortValue()
	})
	return out
}

// atoi parses submatch group g. The patterns only capture digits.
func atoi(text string, m []int, g int) int {
	n, _ := strconv.Atoi(text[m[2*g]:m[2*g+1]])
	return n
}

func decadeOf(year int) int {
	return year / 10 * 10
}

// excerpt returns the text around [start, end), marking cut ends with "..."
func excerpt(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	s := strings.TrimSpace(text[from:to])
	if from > 0 {
		s = "..." + s
	}
	if to < len(text) {
		s += "..."
	}
	return s
}

// Period is the span of time a story appears to cover. Zero values are absent.
type Period struct {
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
	Era   string `json:"era,omitempty"`
}

// IsZero reports whether no dates were found
func (p Period) IsZero() bool {
	return p.Start == 0 && p.End == 0 && p.Era == ""
}

// EstimatePeriod reduces the dates in text to a single period. Spans of ten
// years or less are labelled with the midpoint decade, e.g. "1950s"; longer
// spans as "1948 - 1972".
func EstimatePeriod(text string) Period {
	return Extractor{}.EstimatePeriod(text)
}

// EstimatePeriod reduces the dates in text to a single period
func (e Extractor) EstimatePeriod(text string) Period {
	var values []int
	for _, d := range e.Extract(text, 0) {
		if v := d.sortValue(); v != 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Period{}
	}
	sort.Ints(values)

	p := Period{Start: values[0], End: values[len(values)-1]}
	if p.End-p.Start <= 10 {
		p.Era = fmt.Sprintf("%ds", decadeOf((p.Start+p.End)/2))
	} else {
		p.Era = fmt.Sprintf("%d - %d", p.Start, p.End)
	}
	return p
}
