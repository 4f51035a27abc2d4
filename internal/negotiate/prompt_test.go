package negotiate

import (
	"strings"
	"testing"

	"docintake/internal/summary"
)

func TestInitialPromptDescribesFiles(t *testing.T) {
	p := InitialPrompt(testFiles(), 2)
	if !strings.Contains(p, "catalog.csv (spreadsheet)") {
		t.Fatalf("spreadsheet not described:\n%s", p)
	}
	if !strings.Contains(p, "sku, name, price") {
		t.Fatalf("headers missing:\n%s", p)
	}
	if !strings.Contains(p, "notes.txt (text)") {
		t.Fatalf("text file not described:\n%s", p)
	}
	if !strings.Contains(p, ContinuationMarker) {
		t.Fatalf("follow-up instructions missing:\n%s", p)
	}
}

func TestInitialPromptOneShotWhenDepthZero(t *testing.T) {
	p := InitialPrompt(testFiles(), 0)
	if strings.Contains(p, ContinuationMarker) {
		t.Fatalf("one-shot prompt must not solicit the marker:\n%s", p)
	}
	if !strings.Contains(p, "Do not ask any questions.") {
		t.Fatalf("one-shot instructions missing:\n%s", p)
	}
}

func TestDescribeFilesSampleRowCap(t *testing.T) {
	files := []summary.FileSummary{{
		Name: "big.csv",
		Kind: summary.KindSpreadsheet,
		Spreadsheet: &summary.SpreadsheetSummary{
			Headers:    []string{"a"},
			SampleRows: [][]string{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}},
			SheetCount: 1,
			RowCount:   5,
		},
	}}
	out := DescribeFiles(files)
	if got := strings.Count(out, "Sample row:"); got != 3 {
		t.Fatalf("sample rows = %d, want 3:\n%s", got, out)
	}
}

func TestFollowUpPromptRendersHistoryOnce(t *testing.T) {
	mem := NewMemory()
	mem.Append(Message{Role: RoleSystem, Content: SystemFollowUp})
	mem.Append(Message{Role: RoleUser, Content: "initial file prompt"})
	mem.Append(Message{Role: RoleAssistant, Content: "first questions"})

	p := FollowUpPrompt(testFiles(), mem, "my answer", false)
	if strings.Contains(p, "initial file prompt") {
		t.Fatalf("initial prompt duplicated into history:\n%s", p)
	}
	if !strings.Contains(p, "Assistant: first questions") {
		t.Fatalf("assistant turn missing:\n%s", p)
	}
	if !strings.Contains(p, "User: my answer") {
		t.Fatalf("latest answer missing:\n%s", p)
	}
	if !strings.Contains(p, "[CONVERSATION SO FAR]") {
		t.Fatalf("history section missing:\n%s", p)
	}
}
