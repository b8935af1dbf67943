package theme

import (
	"regexp"
	"strings"
)

// matcher counts whole-word occurrences of a single keyword or phrase.
// A compiled *regexp.Regexp holds no scan position, so shared matchers are
// safe across goroutines and calls.
type matcher struct {
	keyword string
	weight  int
	re      *regexp.Regexp
}

func newMatcher(keyword string) matcher {
	weight := 1
	if strings.Contains(keyword, " ") {
		weight = 2
	}
	return matcher{
		keyword: keyword,
		weight:  weight,
		re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`),
	}
}

// count returns the number of non-overlapping matches in already lowercased text
func (m matcher) count(text string) int {
	if text == "" {
		return 0
	}
	return len(m.re.FindAllStringIndex(text, -1))
}

func compile(words []string) []matcher {
	out := make([]matcher, len(words))
	for i, w := range words {
		out[i] = newMatcher(w)
	}
	return out
}

// Matchers are built once and only read afterwards.
var (
	chapterMatchers = func() map[Chapter][]matcher {
		m := make(map[Chapter][]matcher, len(chapterKeywords))
		for ch, words := range chapterKeywords {
			m[ch] = compile(words)
		}
		return m
	}()

	// universe is every chapter keyword once, in table order
	universe = func() []matcher {
		seen := make(map[string]bool)
		var out []matcher
		for _, ch := range chapterOrder {
			for _, m := range chapterMatchers[ch] {
				if seen[m.keyword] {
					continue
				}
				seen[m.keyword] = true
				out = append(out, m)
			}
		}
		return out
	}()

	positiveMatchers   = compile(positiveWords)
	negativeMatchers   = compile(negativeWords)
	reflectiveMatchers = compile(reflectiveWords)
)

func total(ms []matcher, text string) int {
	n := 0
	for _, m := range ms {
		n += m.count(text)
	}
	return n
}

// Keywords returns a copy of the keyword list for a chapter
func Keywords(ch Chapter) []string {
	words := chapterKeywords[ch]
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// Matched returns the keywords of ch that occur in text, in table order
func Matched(text string, ch Chapter) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, m := range chapterMatchers[ch] {
		if m.count(lower) > 0 {
			out = append(out, m.keyword)
		}
	}
	return out
}
