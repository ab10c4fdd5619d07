package core

import "slices"

// DefaultSummaryLanguage is used when no language is requested.
const DefaultSummaryLanguage = "english"

// SummaryLanguages lists the languages the backend can summarize in.
var SummaryLanguages = []string{"english", "hausa", "yoruba", "igbo"}

// ValidSummaryLanguage reports whether lang is in SummaryLanguages.
func ValidSummaryLanguage(lang string) bool {
	return slices.Contains(SummaryLanguages, lang)
}

// Topic is one key topic drawn from a summary.
type Topic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary is a generated overview of a transcript.
type Summary struct {
	ID        string  `json:"id"`
	Language  string  `json:"language"`
	Text      string  `json:"summary"`
	KeyTopics []Topic `json:"key_topics,omitempty"`
}
