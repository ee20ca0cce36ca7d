package models

import "time"

// SourceFile is a named document handed in for indexing
type SourceFile struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// SourceDocument is the ordered set of text-bearing pages extracted from one file
type SourceDocument struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// Page is the cleaned text of a single page. Number is 1-based.
type Page struct {
	Source string `json:"source"`
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk is a word-bounded window of a single page
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	Index  int    `json:"index"`
}

// SearchResult pairs a chunk with its L2 distance to the query
type SearchResult struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// Citation identifies a distinct passage shown to the user
type Citation struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

// Answer represents a grounded response to a question
type Answer struct {
	Question  string         `json:"question"`
	Text      string         `json:"answer"`
	Sources   []SearchResult `json:"sources"`
	Citations []Citation     `json:"citations"`
	CreatedAt time.Time      `json:"created_at"`
}

// IndexStats summarizes a successful index build
type IndexStats struct {
	Documents int           `json:"documents"`
	Pages     int           `json:"pages"`
	Chunks    int           `json:"chunks"`
	Dimension int           `json:"dimension"`
	Duration  time.Duration `json:"duration"`
}

// HistoryEntry is a recorded question/answer pair
type HistoryEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Citations []string  `json:"citations"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}
