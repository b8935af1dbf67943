package theme

import (
	"sort"
	"strings"
)

// Sentiment is the coarse tone of a story
type Sentiment string

const (
	Positive   Sentiment = "positive"
	Negative   Sentiment = "negative"
	Reflective Sentiment = "reflective"
	Neutral    Sentiment = "neutral"
)

// MaxResultTags caps the tags returned by Classify
const MaxResultTags = 5

// DefaultMaxTags is the usual limit passed to ExtractTags
const DefaultMaxTags = 5

// Result is the outcome of classifying one text
type Result struct {
	Chapter    Chapter         `json:"chapter"`
	Confidence float64         `json:"confidence"`
	Scores     map[Chapter]int `json:"scores"`
	Sentiment  Sentiment       `json:"sentiment"`
	Tags       []string        `json:"tags"`
}

// Classify scores text against every chapter's keywords and returns the best
// fit. Phrases count double. The first chapter in table order to reach the
// top score wins; with no matches at all the result is DefaultChapter with
// zero confidence.
func Classify(text string) Result {
	lower := strings.ToLower(text)

	res := Result{
		Chapter: DefaultChapter,
		Scores:  make(map[Chapter]int, len(chapterOrder)),
		Tags:    []string{},
	}

	seen := make(map[string]bool)
	sum, best := 0, 0
	for _, ch := range chapterOrder {
		score := 0
		for _, m := range chapterMatchers[ch] {
			n := m.count(lower)
			if n == 0 {
				continue
			}
			score += n * m.weight
			if !seen[m.keyword] {
				seen[m.keyword] = true
				if len(res.Tags) < MaxResultTags {
					res.Tags = append(res.Tags, m.keyword)
				}
			}
		}
		res.Scores[ch] = score
		sum += score
		if score > best {
			best = score
			res.Chapter = ch
		}
	}

	if sum > 0 {
		res.Confidence = float64(best) / float64(sum)
	}
	res.Sentiment = sentimentLabel(lower)

	return res
}

func sentimentLabel(lower string) Sentiment {
	counts := []struct {
		label Sentiment
		n     int
	}{
		{Positive, total(positiveMatchers, lower)},
		{Negative, total(negativeMatchers, lower)},
		{Reflective, total(reflectiveMatchers, lower)},
	}

	label, max := Neutral, 0
	for _, c := range counts {
		if c.n > max {
			label, max = c.label, c.n
		}
	}
	return label
}

// SentimentScore returns (positive - negative) / (positive + negative) word
// occurrences, in [-1, 1]. Text without either kind of word scores 0.
func SentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	pos := total(positiveMatchers, lower)
	neg := total(negativeMatchers, lower)
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// ExtractTags returns up to maxTags keywords from all chapters, most frequent
// first. Keywords with equal counts keep table order.
func ExtractTags(text string, maxTags int) []string {
	if maxTags <= 0 {
		return []string{}
	}
	lower := strings.ToLower(text)

	type tally struct {
		keyword string
		n       int
	}
	var hits []tally
	for _, m := range universe {
		if n := m.count(lower); n > 0 {
			hits = append(hits, tally{m.keyword, n})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].n > hits[j].n
	})

	if len(hits) > maxTags {
		hits = hits[:maxTags]
	}
	tags := make([]string, len(hits))
	for i, h := range hits {
		tags[i] = h.keyword
	}
	return tags
}
