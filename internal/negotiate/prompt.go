package negotiate

import (
	"bytes"
	"fmt"
	"strings"

	"docintake/internal/summary"
)

// System prompts per round kind. The final prompt is selected exactly when
// the depth after increment reaches maxDepth.
const (
	SystemAnalyst = "You are a document-intake analyst. You review structural previews of uploaded files " +
		"and recommend how to catalog and vectorize them. Be concrete and concise."
	SystemFollowUp = SystemAnalyst + " You may ask further clarifying questions when the provided " +
		"information is insufficient."
	SystemFinal = SystemAnalyst + " This is the final round: do NOT ask any further questions. " +
		"Produce your complete analysis now."
)

// InitialPrompt renders the first user prompt: one section per file summary
// followed by the instruction block. The instruction wording depends on
// whether follow-up questions are wanted (maxDepth > 0) or a one-shot answer
// (maxDepth == 0). Pure function of its inputs.
func InitialPrompt(files []summary.FileSummary, maxDepth int) string {
	var buf bytes.Buffer
	writeSection(&buf, "UPLOADED FILES", DescribeFiles(files))
	if maxDepth > 0 {
		writeSection(&buf, "INSTRUCTIONS", followUpInstructions)
	} else {
		writeSection(&buf, "INSTRUCTIONS", oneShotInstructions)
	}
	return strings.TrimSpace(buf.String()) + "\n"
}

// FollowUpPrompt renders the prompt for a continuation round: the file
// sections, the conversation so far as alternating "Assistant:"/"User:"
// blocks reconstructed from message pairs, ending with the latest user
// answer, then the instruction block.
func FollowUpPrompt(files []summary.FileSummary, mem *Memory, latestAnswer string, final bool) string {
	var buf bytes.Buffer
	writeSection(&buf, "UPLOADED FILES", DescribeFiles(files))
	writeSection(&buf, "CONVERSATION SO FAR", renderHistory(mem, latestAnswer))
	if final {
		writeSection(&buf, "INSTRUCTIONS", oneShotInstructions)
	} else {
		writeSection(&buf, "INSTRUCTIONS", followUpInstructions)
	}
	return strings.TrimSpace(buf.String()) + "\n"
}

const followUpInstructions = `Review the uploaded files above. If you need more information before you can
recommend metadata fields and a vectorization strategy, ask clarifying
questions grouped into lettered categories, e.g.:

A) CORE USE CASE
1. <question>
2. <question>
B) FILTERING
1. <question>

Then, on the last line, write NEED_MORE_INFO followed by YES if you still
need answers, or NO if you have enough to produce the final analysis.`

const oneShotInstructions = `Review the uploaded files above and produce your complete analysis:
1. A short summary of what the files contain and key insights.
2. A metadata field recommendation as a markdown table with exactly the
   columns | Field | Type | Description | Why |.
3. A vectorization recommendation: "Recommended model: ..." and
   "Chunking strategy: ..." with a one-line rationale for each.
Do not ask any questions.`

// DescribeFiles renders one titled block per summary with its type-specific
// fields. Spreadsheets show headers and up to 3 sample rows.
func DescribeFiles(files []summary.FileSummary) string {
	var buf strings.Builder
	for i, f := range files {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "File %d: %s (%s)\n", i+1, f.Name, f.Kind)
		switch f.Kind {
		case summary.KindSpreadsheet:
			describeSpreadsheet(&buf, f.Spreadsheet)
		case summary.KindJSON:
			describeJSON(&buf, f.JSON)
		case summary.KindText, summary.KindPDF, summary.KindDocument:
			describeText(&buf, f.Text)
		default:
			buf.WriteString("  (no structural preview available)\n")
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func describeSpreadsheet(buf *strings.Builder, s *summary.SpreadsheetSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(buf, "  Sheets: %d, rows: %d\n", s.SheetCount, s.RowCount)
	fmt.Fprintf(buf, "  Headers: %s\n", strings.Join(s.Headers, ", "))
	rows := s.SampleRows
	if len(rows) > 3 {
		rows = rows[:3]
	}
	for _, row := range rows {
		fmt.Fprintf(buf, "  Sample row: %s\n", strings.Join(row, " | "))
	}
}

func describeJSON(buf *strings.Builder, s *summary.JSONSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(buf, "  Keys: %s\n", strings.Join(s.Keys, ", "))
	fmt.Fprintf(buf, "  Nesting depth: %d, items: %d, arrays: %d, objects: %d\n",
		s.Depth, s.ItemCount, s.ArrayCount, s.ObjectCount)
	if s.Sample != "" {
		fmt.Fprintf(buf, "  Sample: %s\n", s.Sample)
	}
}

func describeText(buf *strings.Builder, s *summary.TextSummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(buf, "  Length: %d chars, lines: %d, words: %d, paragraphs: %d\n",
		s.Length, s.LineCount, s.WordCount, s.ParagraphCount)
	if s.Preview != "" {
		fmt.Fprintf(buf, "  Preview: %s\n", s.Preview)
	}
}

// renderHistory reconstructs assistant-question/user-answer pairs from the
// memory. The seeding system and initial user messages are skipped; the
// latest answer closes the transcript.
func renderHistory(mem *Memory, latestAnswer string) string {
	var buf strings.Builder
	if mem != nil {
		sawInitialUser := false
		for _, msg := range mem.All() {
			switch msg.Role {
			case RoleAssistant:
				fmt.Fprintf(&buf, "Assistant: %s\n\n", strings.TrimSpace(msg.Content))
			case RoleUser:
				if !sawInitialUser {
					// The initial file prompt; the files are rendered above.
					sawInitialUser = true
					continue
				}
				fmt.Fprintf(&buf, "User: %s\n\n", strings.TrimSpace(msg.Content))
			}
		}
	}
	fmt.Fprintf(&buf, "User: %s", strings.TrimSpace(latestAnswer))
	return buf.String()
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
