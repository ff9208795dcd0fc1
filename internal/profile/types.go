// Package profile holds the domain model for a scraped WaniKani public profile.
package profile

import "time"

// SRS stage names in the order the profile page lists them.
const (
	StageApprentice  = "Apprentice"
	StageGuru        = "Guru"
	StageMaster      = "Master"
	StageEnlightened = "Enlightened"
	StageBurned      = "Burned"
)

// Subject categories.
const (
	CategoryRadical    = "Radical"
	CategoryKanji      = "Kanji"
	CategoryVocabulary = "Vocabulary"
)

// Stages lists the known SRS stages in display order.
var Stages = []string{StageApprentice, StageGuru, StageMaster, StageEnlightened, StageBurned}

// IsKnownStage reports whether name is one of the fixed SRS stages.
func IsKnownStage(name string) bool {
	for _, s := range Stages {
		if s == name {
			return true
		}
	}
	return false
}

// Stats is the record produced by one scrape of a profile page.
type Stats struct {
	Username     string
	Level        string
	Stage        string
	ServingSince time.Time
	SRSStages    []StageRecord
	Progress     Progress
}

// SRSStage returns the stage record with the given title.
func (s Stats) SRSStage(title string) (StageRecord, bool) {
	for _, st := range s.SRSStages {
		if st.Title == title {
			return st, true
		}
	}
	return StageRecord{}, false
}

// Categories returns every subject category seen across the stages, in first-seen order.
func (s Stats) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, st := range s.SRSStages {
		for _, sub := range st.Subjects {
			if seen[sub.Title] {
				continue
			}
			seen[sub.Title] = true
			out = append(out, sub.Title)
		}
	}
	return out
}

// StageRecord is one SRS stage block.
type StageRecord struct {
	Title    string
	Total    int
	Subjects []SubjectCount
}

// Count returns the subject count for category within the stage.
func (r StageRecord) Count(category string) (int, bool) {
	for _, sub := range r.Subjects {
		if sub.Title == category {
			return sub.Count, true
		}
	}
	return 0, false
}

// SubjectCount is a per-category count inside a stage block.
type SubjectCount struct {
	Title string
	Count int
}

// Progress groups the two progress charts shown on the profile.
type Progress struct {
	Kanji      CategoryProgress
	Vocabulary CategoryProgress
}

// CategoryProgress pairs the aggregated known count with the chart labels.
// Max and Percent are kept exactly as the page displays them.
type CategoryProgress struct {
	Known   int
	Max     string
	Percent string
}

// KnownCounts is the Aggregator output.
type KnownCounts struct {
	Kanji      int
	Vocabulary int
}
