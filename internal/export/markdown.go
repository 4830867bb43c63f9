package export

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/digivice-labs/digigraph/internal/model"
)

// StageReportWriter renders entities grouped by evolution stage as a
// Markdown document, with each entry linking back to its wiki page.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation rather than string concatenation; it keeps
// headings, lists and tables well formed without manual escaping.
type StageReportWriter struct {
	output  io.Writer
	baseURL string
}

// NewStageReportWriter creates a StageReportWriter that outputs to the
// given writer, linking entries against baseURL.
func NewStageReportWriter(output io.Writer, baseURL string) *StageReportWriter {
	return &StageReportWriter{
		output:  output,
		baseURL: baseURL,
	}
}

// Write renders the stage-grouped report for the given entities.
func (w *StageReportWriter) Write(title string, entities []*model.Entity) error {
	md := markdown.NewMarkdown(w.output)

	md.H1(title)
	md.PlainText("")

	w.writeAttributeSummary(md, entities)
	w.writeStageGroups(md, entities)

	return md.Build()
}

// writeAttributeSummary writes a count-per-attribute table.
func (w *StageReportWriter) writeAttributeSummary(md *markdown.Markdown, entities []*model.Entity) {
	counts := make(map[string]int)
	titleCaser := cases.Title(language.English)

	for _, e := range entities {
		attribute := e.Attribute
		if attribute == "" {
			attribute = "unknown"
		}
		counts[titleCaser.String(attribute)]++
	}

	attributes := make([]string, 0, len(counts))
	for attribute := range counts {
		attributes = append(attributes, attribute)
	}
	sort.Strings(attributes)

	rows := make([][]string, 0, len(attributes))
	for _, attribute := range attributes {
		rows = append(rows, []string{attribute, strconv.Itoa(counts[attribute])})
	}

	md.H2("Attributes")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Attribute", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeStageGroups writes one linked list per stage, in stage order.
func (w *StageReportWriter) writeStageGroups(md *markdown.Markdown, entities []*model.Entity) {
	groups := make(map[model.Stage][]*model.Entity)
	for _, e := range entities {
		groups[e.Stage] = append(groups[e.Stage], e)
	}

	stages := make([]model.Stage, 0, len(groups))
	for stage := range groups {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	for _, stage := range stages {
		group := groups[stage]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		md.H2("Stage: " + stage.String())
		items := make([]string, 0, len(group))
		for _, e := range group {
			items = append(items, markdown.Link(e.Name, w.baseURL+e.SiteID))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}
