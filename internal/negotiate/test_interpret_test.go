package negotiate

import (
	"strings"
	"testing"
)

func TestSplitContinuationYes(t *testing.T) {
	raw := "Here is what I found.\n\nNEED_MORE_INFO: YES"
	visible, needsMore, found := SplitContinuation(raw)
	if !found {
		t.Fatalf("marker not found")
	}
	if !needsMore {
		t.Fatalf("expected needsMore=true")
	}
	if visible != "Here is what I found." {
		t.Fatalf("visible = %q", visible)
	}
}

func TestSplitContinuationNo(t *testing.T) {
	visible, needsMore, found := SplitContinuation("Done.\nNEED_MORE_INFO NO")
	if !found || needsMore {
		t.Fatalf("found=%v needsMore=%v", found, needsMore)
	}
	if visible != "Done." {
		t.Fatalf("visible = %q", visible)
	}
}

func TestSplitContinuationAbsent(t *testing.T) {
	visible, needsMore, found := SplitContinuation("  Plain answer.  ")
	if found || needsMore {
		t.Fatalf("found=%v needsMore=%v", found, needsMore)
	}
	if visible != "Plain answer." {
		t.Fatalf("visible = %q", visible)
	}
}

// Stripping is stable: splitting the already stripped text changes nothing.
func TestSplitContinuationIdempotent(t *testing.T) {
	first, _, _ := SplitContinuation("Answer text.\nNEED_MORE_INFO: YES, about usage")
	second, needsMore, found := SplitContinuation(first)
	if found || needsMore {
		t.Fatalf("second pass found a marker in %q", first)
	}
	if second != first {
		t.Fatalf("second pass changed text: %q vs %q", second, first)
	}
}

func TestExtractQuestionsCategoriesUnderHeader(t *testing.T) {
	text := `The files look like a product catalog.

Follow-up questions:

A) CORE USE CASE
1. Who will query this data?
2. How fresh must results be?

B) FILTERING
1. Which fields matter for filtering?`

	summaryText, cats := ExtractQuestions(text)
	if summaryText != "The files look like a product catalog." {
		t.Fatalf("summary = %q", summaryText)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d: %+v", len(cats), cats)
	}
	if cats[0].Category != "CORE USE CASE" || len(cats[0].Questions) != 2 {
		t.Fatalf("first category = %+v", cats[0])
	}
	if cats[0].Questions[1] != "How fresh must results be?" {
		t.Fatalf("question = %q", cats[0].Questions[1])
	}
	if cats[1].Category != "FILTERING" || len(cats[1].Questions) != 1 {
		t.Fatalf("second category = %+v", cats[1])
	}
}

func TestExtractQuestionsBareCategories(t *testing.T) {
	text := `Quick look at the data.

A) SCOPE
1. Is this the full dataset?`

	summaryText, cats := ExtractQuestions(text)
	if summaryText != "Quick look at the data." {
		t.Fatalf("summary = %q", summaryText)
	}
	if len(cats) != 1 || cats[0].Category != "SCOPE" {
		t.Fatalf("cats = %+v", cats)
	}
}

func TestExtractQuestionsNumberedFallback(t *testing.T) {
	text := "Some context first.\n1. What is the primary language?\n2) Are there attachments?"
	_, cats := ExtractQuestions(text)
	if len(cats) != 2 {
		t.Fatalf("expected 2 single-question categories, got %+v", cats)
	}
	if cats[0].Category != "Question 1" || cats[1].Category != "Question 2" {
		t.Fatalf("categories = %q, %q", cats[0].Category, cats[1].Category)
	}
	if cats[1].Questions[0] != "Are there attachments?" {
		t.Fatalf("question = %q", cats[1].Questions[0])
	}
}

func TestExtractQuestionsQuestionMarkFallback(t *testing.T) {
	text := "I looked at the files. What is the target audience? Should drafts be included?"
	_, cats := ExtractQuestions(text)
	if len(cats) != 1 || cats[0].Category != "Clarifying Questions" {
		t.Fatalf("cats = %+v", cats)
	}
	if len(cats[0].Questions) != 2 {
		t.Fatalf("questions = %+v", cats[0].Questions)
	}
}

func TestExtractQuestionsCatchAll(t *testing.T) {
	text := "These files appear to contain meeting notes with no obvious structure."
	summaryText, cats := ExtractQuestions(text)
	if summaryText != text {
		t.Fatalf("summary = %q", summaryText)
	}
	if len(cats) != 1 || cats[0].Category != "Additional Information" {
		t.Fatalf("cats = %+v", cats)
	}
	if cats[0].Questions[0] != CatchAllQuestion {
		t.Fatalf("question = %q", cats[0].Questions[0])
	}
}

// A header with no numbered lines underneath must not swallow the later
// strategies.
func TestExtractQuestionsEmptyCategoryBlocks(t *testing.T) {
	text := "Summary.\n\nFollow-up questions:\n\nA) CONTEXT\n(no questions here)\n\nWhat timezone are the timestamps in?"
	_, cats := ExtractQuestions(text)
	if len(cats) != 1 || cats[0].Category != "Clarifying Questions" {
		t.Fatalf("cats = %+v", cats)
	}
	if !strings.Contains(cats[0].Questions[0], "timezone") {
		t.Fatalf("question = %q", cats[0].Questions[0])
	}
}
