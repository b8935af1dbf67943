package theme

// chapterKeywords lists the trigger words and phrases for each chapter.
// Entries are lowercase. A keyword may appear under more than one chapter and
// then counts toward each of them.
var chapterKeywords = map[Chapter][]string{
	WhoIAm: {
		"who i am", "i am", "myself", "personality", "identity", "character",
		"believe", "values", "faith", "passion", "hobby", "always been",
		"kind of person", "stubborn", "independent", "introvert", "dreamer",
	},
	WhereIComeFrom: {
		"grew up", "small town", "hometown", "childhood", "born", "parents",
		"mother", "father", "mom", "dad", "grandmother", "grandfather",
		"grandparents", "family", "farm", "neighborhood", "village",
		"immigrated", "heritage", "siblings", "brothers", "sisters", "roots",
		"old country",
	},
	WhatIveLoved: {
		"love", "loved", "fell in love", "wife", "husband", "married",
		"wedding", "children", "kids", "friends", "best friend", "music",
		"garden", "dancing", "travel", "favorite", "happiest", "beautiful",
	},
	WhatsBeenHard: {
		"hard", "hardest", "difficult", "struggle", "lost", "loss", "died",
		"death", "passed away", "illness", "cancer", "divorce", "war", "pain",
		"grief", "afraid", "fear", "alone", "depression", "hospital",
		"funeral", "broke",
	},
	WhatIveLearned: {
		"learned", "lesson", "realized", "taught me", "wisdom", "advice",
		"understand", "mistake", "mistakes", "looking back", "patience",
		"forgive", "experience", "changed me", "important",
	},
	WhatImStillFiguringOut: {
		"still", "wonder", "figuring out", "not sure", "question", "questions",
		"uncertain", "confused", "maybe", "someday", "don't know", "trying to",
		"searching", "why",
	},
	WhatIWantYouToKnow: {
		"want you to know", "remember", "always", "never forget", "promise",
		"proud of you", "grandchildren", "legacy", "hope you", "future",
		"family", "tell you", "be kind", "take care",
	},
}

// Single-word sentiment indicators. These are matched as whole words only.
var (
	positiveWords = []string{
		"happy", "joy", "love", "loved", "wonderful", "grateful", "proud",
		"beautiful", "blessed", "fun", "laughed", "smile", "excited",
		"amazing", "good", "great", "best",
	}
	negativeWords = []string{
		"sad", "painful", "pain", "hard", "difficult", "lost", "angry",
		"afraid", "hurt", "cried", "grief", "lonely", "terrible", "worst",
		"scared", "sorry",
	}
	reflectiveWords = []string{
		"remember", "realize", "realized", "think", "thought", "wonder",
		"learned", "understand", "reflect", "perhaps", "maybe", "lesson",
	}
)
