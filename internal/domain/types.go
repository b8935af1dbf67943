package domain

import "time"

// Story is a single piece of autobiographical prose with its classification
type Story struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Chapter        string    `json:"chapter"`
	Confidence     float64   `json:"confidence"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TagCount is a tag and the number of stories carrying it
type TagCount struct {
	Name    string `json:"name"`
	Stories int    `json:"stories"`
}
