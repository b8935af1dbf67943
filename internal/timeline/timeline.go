// Package timeline groups stories chronologically by the period their text
// refers to.
package timeline

import (
	"fmt"
	"sort"

	"github.com/pbaille/memoir/internal/dates"
	"github.com/pbaille/memoir/internal/domain"
)

// Undated labels the group of stories with no date references
const Undated = "undated"

// Entry is a story placed on the timeline
type Entry struct {
	Story  domain.Story `json:"story"`
	Period dates.Period `json:"period"`
}

// Group is one decade bucket, or the undated bucket
type Group struct {
	Label   string  `json:"label"`
	Decade  int     `json:"decade,omitempty"`
	Entries []Entry `json:"entries"`
}

// Estimator derives a period from story text
type Estimator func(text string) dates.Period

// Build buckets stories by the decade in which their period starts. Groups are
// in ascending decade order with undated stories last.
func Build(stories []domain.Story, estimate Estimator) []Group {
	if estimate == nil {
		estimate = dates.EstimatePeriod
	}

	byDecade := make(map[int]*Group)
	var undated []Entry

	for _, st := range stories {
		p := estimate(st.Content)
		e := Entry{Story: st, Period: p}
		if p.IsZero() {
			undated = append(undated, e)
			continue
		}

		decade := p.Start / 10 * 10
		g, ok := byDecade[decade]
		if !ok {
			g = &Group{Label: fmt.Sprintf("%ds", decade), Decade: decade}
			byDecade[decade] = g
		}
		g.Entries = append(g.Entries, e)
	}

	groups := make([]Group, 0, len(byDecade)+1)
	for _, g := range byDecade {
		sortEntries(g.Entries)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Decade < groups[j].Decade
	})

	if len(undated) > 0 {
		sortEntries(undated)
		groups = append(groups, Group{Label: Undated, Entries: undated})
	}
	return groups
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Period.Start != b.Period.Start {
			return a.Period.Start < b.Period.Start
		}
		return a.Story.CreatedAt.Before(b.Story.CreatedAt)
	})
}
