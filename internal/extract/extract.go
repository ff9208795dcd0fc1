// Package extract turns a WaniKani public profile page into profile.Stats.
//
// Every field is located by the CSS class the page uses for it rather than by
// position, so a missing class means the page layout changed or the profile
// is not public. Either way extraction fails with a *profile.ParseError
// naming the anchor and no partial record is returned.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/wanikani-report/internal/aggregate"
	"github.com/JakeFAU/wanikani-report/internal/profile"
)

// ServingSinceLayout is the datetime attribute format on the serving-since <time> element.
const ServingSinceLayout = "2006-01-02T15:04:05Z"

// Anchor names reported in ParseError.
const (
	AnchorUsername     = "username"
	AnchorLevel        = "level"
	AnchorStage        = "stage"
	AnchorServingSince = "serving since"
	AnchorSRSStages    = "srs stages"
	AnchorStageTitle   = "srs stage title"
	AnchorStageTotal   = "srs stage total"
	AnchorSubjectTitle = "subject type title"
	AnchorSubjectCount = "subject type count"
	AnchorKanjiChart   = "kanji progress"
	AnchorVocabChart   = "vocabulary progress"
	AnchorChartLabel   = "progress label"
	AnchorChartAxisMax = "progress axis max"
)

const (
	selUsername     = "div.public-profile__username"
	selLevel        = "div.public-profile__level-info-level"
	selStage        = "div.public-profile__level-info-stage"
	selServingSince = "span.public-profile__serving-since-date time"
	selSRSStage     = "li.srs-progress__stage"
	selStageTitle   = ".srs-progress__stage-title"
	selStageTotal   = ".srs-progress__stage-total"
	selSubjectType  = ".srs-progress__subject-type"
	selSubjectTitle = ".srs-progress__subject-type-title"
	selSubjectCount = ".srs-progress__subject-type-count"
	selKanjiChart   = "div.public-profile__kanji-progress"
	selVocabChart   = "div.public-profile__vocabulary-progress"
	selChartLabel   = ".progress-chart__progress-bar-label-count"
	selChartAxisMax = ".progress-chart__bar-axis-max"
)

// Extract parses doc and returns the populated record.
func Extract(doc string) (profile.Stats, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return profile.Stats{}, &profile.ParseError{Anchor: "document", Err: err}
	}
	return FromDocument(root)
}

// FromDocument extracts from an already parsed goquery document.
func FromDocument(root *goquery.Document) (profile.Stats, error) {
	var (
		stats profile.Stats
		err   error
	)
	sel := root.Selection

	if stats.Username, err = requireText(sel, selUsername, AnchorUsername); err != nil {
		return profile.Stats{}, err
	}
	if stats.Level, err = requireText(sel, selLevel, AnchorLevel); err != nil {
		return profile.Stats{}, err
	}
	if stats.Stage, err = requireText(sel, selStage, AnchorStage); err != nil {
		return profile.Stats{}, err
	}
	if stats.ServingSince, err = servingSince(sel); err != nil {
		return profile.Stats{}, err
	}
	if stats.SRSStages, err = srsStages(sel); err != nil {
		return profile.Stats{}, err
	}

	known, err := aggregate.Known(stats.SRSStages)
	if err != nil {
		return profile.Stats{}, err
	}

	stats.Progress.Kanji, err = chart(sel, selKanjiChart, AnchorKanjiChart)
	if err != nil {
		return profile.Stats{}, err
	}
	stats.Progress.Kanji.Known = known.Kanji

	stats.Progress.Vocabulary, err = chart(sel, selVocabChart, AnchorVocabChart)
	if err != nil {
		return profile.Stats{}, err
	}
	stats.Progress.Vocabulary.Known = known.Vocabulary

	return stats, nil
}

func servingSince(sel *goquery.Selection) (time.Time, error) {
	node := sel.Find(selServingSince).First()
	raw, ok := node.Attr("datetime")
	if node.Length() == 0 || !ok {
		return time.Time{}, &profile.ParseError{Anchor: AnchorServingSince, Detail: "element not found"}
	}
	ts, err := time.Parse(ServingSinceLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &profile.ParseError{Anchor: AnchorServingSince, Detail: fmt.Sprintf("bad datetime %q", raw), Err: err}
	}
	return ts, nil
}

func srsStages(sel *goquery.Selection) ([]profile.StageRecord, error) {
	blocks := sel.Find(selSRSStage)
	if blocks.Length() == 0 {
		return nil, &profile.ParseError{Anchor: AnchorSRSStages, Detail: "element not found"}
	}

	stages := make([]profile.StageRecord, 0, blocks.Length())
	seen := make(map[string]bool, blocks.Length())
	for i := range blocks.Nodes {
		block := blocks.Eq(i)
		title, err := requireText(block, selStageTitle, AnchorStageTitle)
		if err != nil {
			return nil, err
		}
		if !profile.IsKnownStage(title) {
			return nil, &profile.ParseError{Anchor: AnchorStageTitle, Detail: fmt.Sprintf("unexpected stage %q", title)}
		}
		if seen[title] {
			return nil, &profile.ParseError{Anchor: AnchorStageTitle, Detail: fmt.Sprintf("duplicate stage %q", title)}
		}
		seen[title] = true

		total, err := requireCount(block, selStageTotal, AnchorStageTotal)
		if err != nil {
			return nil, err
		}
		subjects, err := subjectTypes(block)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", title, err)
		}
		stages = append(stages, profile.StageRecord{Title: title, Total: total, Subjects: subjects})
	}
	return stages, nil
}

func subjectTypes(block *goquery.Selection) ([]profile.SubjectCount, error) {
	types := block.Find(selSubjectType)
	subjects := make([]profile.SubjectCount, 0, types.Length())
	for i := range types.Nodes {
		st := types.Eq(i)
		title, err := requireText(st, selSubjectTitle, AnchorSubjectTitle)
		if err != nil {
			return nil, err
		}
		count, err := requireCount(st, selSubjectCount, AnchorSubjectCount)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, profile.SubjectCount{Title: title, Count: count})
	}
	return subjects, nil
}

func chart(sel *goquery.Selection, selector, anchor string) (profile.CategoryProgress, error) {
	region := sel.Find(selector).First()
	if region.Length() == 0 {
		return profile.CategoryProgress{}, &profile.ParseError{Anchor: anchor, Detail: "element not found"}
	}
	label, err := requireText(region, selChartLabel, anchor+" "+AnchorChartLabel)
	if err != nil {
		return profile.CategoryProgress{}, err
	}
	axisMax, err := requireText(region, selChartAxisMax, anchor+" "+AnchorChartAxisMax)
	if err != nil {
		return profile.CategoryProgress{}, err
	}
	return profile.CategoryProgress{Max: axisMax, Percent: label}, nil
}

func requireText(sel *goquery.Selection, selector, anchor string) (string, error) {
	node := sel.Find(selector).First()
	if node.Length() == 0 {
		return "", &profile.ParseError{Anchor: anchor, Detail: "element not found"}
	}
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return "", &profile.ParseError{Anchor: anchor, Detail: "element is empty"}
	}
	return text, nil
}

func requireCount(sel *goquery.Selection, selector, anchor string) (int, error) {
	text, err := requireText(sel, selector, anchor)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0, &profile.ParseError{Anchor: anchor, Detail: fmt.Sprintf("not an integer: %q", text), Err: err}
	}
	if n < 0 {
		return 0, &profile.ParseError{Anchor: anchor, Detail: fmt.Sprintf("negative count %d", n)}
	}
	return n, nil
}
