// Package aggregate derives summary figures from the per-stage SRS breakdown.
package aggregate

import "github.com/JakeFAU/wanikani-report/internal/profile"

// Known sums the Kanji and Vocabulary counts over every stage except
// Apprentice. Items still in Apprentice are not considered known.
func Known(stages []profile.StageRecord) (profile.KnownCounts, error) {
	var out profile.KnownCounts
	for _, st := range stages {
		kanji, ok := st.Count(profile.CategoryKanji)
		if !ok {
			return profile.KnownCounts{}, &profile.AggregationError{Stage: st.Title, Category: profile.CategoryKanji}
		}
		vocab, ok := st.Count(profile.CategoryVocabulary)
		if !ok {
			return profile.KnownCounts{}, &profile.AggregationError{Stage: st.Title, Category: profile.CategoryVocabulary}
		}
		if st.Title == profile.StageApprentice {
			continue
		}
		out.Kanji += kanji
		out.Vocabulary += vocab
	}
	return out, nil
}
