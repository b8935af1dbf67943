// Package theme assigns autobiographical stories to one of seven fixed life
// chapters using compiled-in keyword tables.
package theme

import "fmt"

// Chapter is one of the seven fixed life chapters a story can belong to
type Chapter string

const (
	WhoIAm                 Chapter = "who-i-am"
	WhereIComeFrom         Chapter = "where-i-come-from"
	WhatIveLoved           Chapter = "what-ive-loved"
	WhatsBeenHard          Chapter = "whats-been-hard"
	WhatIveLearned         Chapter = "what-ive-learned"
	WhatImStillFiguringOut Chapter = "what-im-still-figuring-out"
	WhatIWantYouToKnow     Chapter = "what-i-want-you-to-know"
)

// DefaultChapter is assigned when no keyword matches
const DefaultChapter = WhoIAm

// chapterOrder is the table iteration order. Ties are resolved in favor of
// the chapter that appears first here.
var chapterOrder = [...]Chapter{
	WhoIAm,
	WhereIComeFrom,
	WhatIveLoved,
	WhatsBeenHard,
	WhatIveLearned,
	WhatImStillFiguringOut,
	WhatIWantYouToKnow,
}

var chapterTitles = map[Chapter]string{
	WhoIAm:                 "Who I Am",
	WhereIComeFrom:         "Where I Come From",
	WhatIveLoved:           "What I've Loved",
	WhatsBeenHard:          "What's Been Hard",
	WhatIveLearned:         "What I've Learned",
	WhatImStillFiguringOut: "What I'm Still Figuring Out",
	WhatIWantYouToKnow:     "What I Want You to Know",
}

// Chapters returns all chapters in table order
func Chapters() []Chapter {
	out := make([]Chapter, len(chapterOrder))
	copy(out, chapterOrder[:])
	return out
}

// Title returns the display title of a chapter
func (c Chapter) Title() string {
	if t, ok := chapterTitles[c]; ok {
		return t
	}
	return string(c)
}

// Valid reports whether c is one of the seven chapters
func (c Chapter) Valid() bool {
	_, ok := chapterTitles[c]
	return ok
}

// ParseChapter validates a chapter tag such as "whats-been-hard"
func ParseChapter(s string) (Chapter, error) {
	c := Chapter(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown chapter: %q", s)
	}
	return c, nil
}
