package negotiate

import (
	"fmt"
	"regexp"
	"strings"
)

// ContinuationMarker is the literal token the oracle appends to report
// whether it still needs answers. Everything from the marker to the end of
// the response is stripped from user-visible text.
const ContinuationMarker = "NEED_MORE_INFO"

// CatchAllQuestion is synthesized when no extraction strategy matches.
const CatchAllQuestion = "Is there any additional information about these files or their intended use that would help?"

// SplitContinuation locates the continuation marker. found reports whether
// the marker was present at all; needsMore is true iff the word YES appears
// after it. visible is the response with the marker and its tail removed.
func SplitContinuation(raw string) (visible string, needsMore, found bool) {
	idx := strings.Index(raw, ContinuationMarker)
	if idx < 0 {
		return strings.TrimSpace(raw), false, false
	}
	tail := raw[idx+len(ContinuationMarker):]
	needsMore = strings.Contains(strings.ToUpper(tail), "YES")
	return strings.TrimSpace(raw[:idx]), needsMore, true
}

var (
	followUpHeaderRe = regexp.MustCompile(`(?i)follow[- ]?up questions?\s*:?`)
	categoryHeaderRe = regexp.MustCompile(`(?m)^\s*([A-Z])\)\s*(.+?)\s*$`)
	numberedLineRe   = regexp.MustCompile(`(?m)^\s*(\d+)[.)]\s+(.+?)\s*$`)
	questionSpanRe   = regexp.MustCompile(`[^.!?\n]+\?`)
)

// ExtractQuestions parses marker-stripped text into categorized follow-up
// questions. Strategies are tried in strict order, first success wins:
// lettered category headers under a follow-up section, bare numbered lines,
// question-mark spans, then a single synthetic catch-all. The text before
// the first matched header (or the whole text when none matched) is returned
// as the display summary.
func ExtractQuestions(text string) (summaryText string, cats []QuestionCategory) {
	summaryText = strings.TrimSpace(text)

	if loc := followUpHeaderRe.FindStringIndex(text); loc != nil {
		if cats = categoryQuestions(text[loc[1]:]); len(cats) > 0 {
			summaryText = strings.TrimSpace(text[:loc[0]])
			return summaryText, cats
		}
	}
	if h := categoryHeaderRe.FindStringIndex(text); h != nil {
		if cats = categoryQuestions(text); len(cats) > 0 {
			summaryText = strings.TrimSpace(text[:h[0]])
			return summaryText, cats
		}
	}
	if cats = numberedQuestions(text); len(cats) > 0 {
		return summaryText, cats
	}
	if cats = questionMarkQuestions(text); len(cats) > 0 {
		return summaryText, cats
	}
	return summaryText, []QuestionCategory{{
		Category:  "Additional Information",
		Questions: []string{CatchAllQuestion},
	}}
}

// categoryQuestions splits text into blocks at "A) HEADER" lines and pulls
// the numbered lines out of each block.
func categoryQuestions(text string) []QuestionCategory {
	headers := categoryHeaderRe.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return nil
	}
	var out []QuestionCategory
	for i, h := range headers {
		label := strings.TrimSpace(text[h[4]:h[5]])
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		block := text[h[1]:end]
		var qs []string
		for _, m := range numberedLineRe.FindAllStringSubmatch(block, -1) {
			qs = append(qs, strings.TrimSpace(m[2]))
		}
		if len(qs) == 0 {
			continue
		}
		out = append(out, QuestionCategory{Category: label, Questions: qs})
	}
	return out
}

// numberedQuestions extracts bare "<n>. <text>" lines, one category per line.
func numberedQuestions(text string) []QuestionCategory {
	matches := numberedLineRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]QuestionCategory, 0, len(matches))
	for i, m := range matches {
		out = append(out, QuestionCategory{
			Category:  fmt.Sprintf("Question %d", i+1),
			Questions: []string{strings.TrimSpace(m[2])},
		})
	}
	return out
}

// questionMarkQuestions collects spans ending in '?' under one category.
func questionMarkQuestions(text string) []QuestionCategory {
	spans := questionSpanRe.FindAllString(text, -1)
	var qs []string
	for _, s := range spans {
		s = strings.TrimSpace(s)
		if s != "" {
			qs = append(qs, s)
		}
	}
	if len(qs) == 0 {
		return nil
	}
	return []QuestionCategory{{Category: "Clarifying Questions", Questions: qs}}
}
