package core

import "time"

// SearchHit is one remote search match.
type SearchHit struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Segment is a timed slice of a transcript.
type Segment struct {
	ID         string        `json:"id"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}
