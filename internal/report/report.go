// Package report renders profile statistics as a Markdown chat message.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/wanikani-report/internal/profile"
)

// UnknownStageEmoji marks a stage column whose name has no emoji mapping.
const UnknownStageEmoji = ":grey_question:"

var stageEmoji = map[string]string{
	profile.StageApprentice:  ":egg:",
	profile.StageGuru:        ":hatching_chick:",
	profile.StageMaster:      ":hatched_chick:",
	profile.StageEnlightened: ":mage:",
	profile.StageBurned:      ":fire:",
}

// Emoji returns the chat emoji shortcode for an SRS stage.
func Emoji(stage string) string {
	if e, ok := stageEmoji[stage]; ok {
		return e
	}
	return UnknownStageEmoji
}

// Render builds the message body: a title, the kanji and vocabulary
// progression lines, and a table with one column pair per SRS stage.
func Render(stats profile.Stats) string {
	parts := []string{
		Title(stats),
		progressLine("Kanji", stats.Progress.Kanji),
		progressLine("Vocabulary", stats.Progress.Vocabulary),
	}
	if len(stats.SRSStages) > 0 {
		parts = append(parts, Table(stats))
	}
	if !stats.ServingSince.IsZero() {
		parts = append(parts, "Serving the Crabigator since "+stats.ServingSince.UTC().Format("2006-01-02"))
	}
	return strings.Join(parts, "\n\n")
}

// Title is the heading line naming the user, stage, and level.
func Title(stats profile.Stats) string {
	return fmt.Sprintf("#### WaniKani Report for %s (%s %s)", stats.Username, stats.Stage, stats.Level)
}

func progressLine(label string, p profile.CategoryProgress) string {
	return fmt.Sprintf("%s Progression: %d/%s (%s)", label, p.Known, p.Max, p.Percent)
}

// Table renders the per-stage breakdown as a Markdown table. The header row
// carries each stage with its emoji and total; each following row is one
// subject category with that category's count in every stage.
func Table(stats profile.Stats) string {
	t := table.NewWriter()

	header := make(table.Row, 0, len(stats.SRSStages)*2)
	for _, st := range stats.SRSStages {
		header = append(header, st.Title+" "+Emoji(st.Title), st.Total)
	}
	t.AppendHeader(header)

	for _, category := range stats.Categories() {
		row := make(table.Row, 0, len(stats.SRSStages)*2)
		for _, st := range stats.SRSStages {
			count, _ := st.Count(category)
			row = append(row, category, count)
		}
		t.AppendRow(row)
	}
	return t.RenderMarkdown()
}
