package negotiate

import (
	"regexp"
	"strings"

	"docintake/internal/util/jsonutil"
)

// Defaults used when only half of the vectorization recommendation could be
// located in the response.
const (
	DefaultModelRecommendation = "Extract embeddings using a domain-specific model"
	DefaultChunkingStrategy    = "Segment by logical document sections"

	modelExplanationPlaceholder    = "Chosen to match the dominant content type of the uploaded files."
	chunkingExplanationPlaceholder = "Keeps each chunk semantically self-contained."
	bulletExplanationPlaceholder   = "Recommended from the document structure."

	emptyInsights = "The analysis service returned no readable summary for these files."
)

// ExtractFinal coerces marker-stripped oracle text into a FinalResult.
// A strict JSON parse is attempted first; on failure the heuristic
// extractors run against the text. Parse failure is the expected path for
// most real responses, not an error. Pure function: same input, same output.
func ExtractFinal(text string) FinalResult {
	text = strings.TrimSpace(text)
	if r, ok := parseJSONResult(text); ok {
		return r
	}
	r := FinalResult{Insights: text}
	if r.Insights == "" {
		r.Insights = emptyInsights
	}
	r.Metadata = parseMarkdownTable(text)
	if len(r.Metadata) == 0 {
		r.Metadata = parseBulletFields(text)
	}
	r.Vectorization = parseVectorization(text)
	return r
}

type finalJSONEnvelope struct {
	Insights      string          `json:"insights"`
	Summary       string          `json:"summary"`
	Metadata      []MetadataField `json:"metadata"`
	Vectorization *Vectorization  `json:"vectorization"`
}

func parseJSONResult(text string) (FinalResult, bool) {
	if !strings.HasPrefix(text, "{") {
		return FinalResult{}, false
	}
	var env finalJSONEnvelope
	if err := jsonutil.Unmarshal([]byte(text), &env); err != nil {
		return FinalResult{}, false
	}
	insights := strings.TrimSpace(env.Insights)
	if insights == "" {
		insights = strings.TrimSpace(env.Summary)
	}
	if insights == "" {
		insights = text
	}
	return FinalResult{
		Insights:      insights,
		Metadata:      env.Metadata,
		Vectorization: env.Vectorization,
	}, true
}

// parseMarkdownTable detects a pipe table with a --- separator line and at
// least one data row, and maps rows of exactly 4 cells to metadata fields.
// The first two rows (header and separator) are skipped.
func parseMarkdownTable(text string) []MetadataField {
	if !strings.Contains(text, "|") {
		return nil
	}
	var pipeRows []string
	sawSeparator := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "|") {
			continue
		}
		if strings.Contains(line, "---") {
			sawSeparator = true
		}
		pipeRows = append(pipeRows, line)
	}
	if !sawSeparator || len(pipeRows) < 3 {
		return nil
	}
	var out []MetadataField
	for _, row := range pipeRows[2:] {
		cells := splitTableRow(row)
		if len(cells) != 4 {
			continue
		}
		out = append(out, MetadataField{
			FieldName:   cells[0],
			Type:        cells[1],
			Description: cells[2],
			Explanation: cells[3],
		})
	}
	return out
}

func splitTableRow(row string) []string {
	parts := strings.Split(row, "|")
	// Leading/trailing pipes produce empty edge cells.
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

var bulletFieldRe = regexp.MustCompile(`(?m)^\s*[•\-*]\s*\*\*(.+?)\*\*\s*:\s*(.+?)\s*$`)

// parseBulletFields falls back to "• **Field**: description" bullets when no
// table was found. Type defaults to string.
func parseBulletFields(text string) []MetadataField {
	var out []MetadataField
	for _, m := range bulletFieldRe.FindAllStringSubmatch(text, -1) {
		out = append(out, MetadataField{
			FieldName:   strings.TrimSpace(m[1]),
			Type:        "string",
			Description: strings.TrimSpace(m[2]),
			Explanation: bulletExplanationPlaceholder,
		})
	}
	return out
}

var (
	chunkingDirectRe = regexp.MustCompile(`(?i)chunking\s+(?:strategy|approach)\s*:\s*(.+)`)
	modelDirectRe    = regexp.MustCompile(`(?i)(?:vectorization\s+strategy|recommended\s+model)\s*:\s*(.+)`)
	chunkingBroadRe  = regexp.MustCompile(`(?i)chunking\s+and\s+segmenting[^:\n]*:\s*(.+)`)
	modelBroadRe     = regexp.MustCompile(`(?i)vectorization[^:\n]*:\s*(.+)`)
)

// parseVectorization searches for chunking and model recommendation phrases,
// direct forms first, then the broader section captures. If any of the four
// captures succeeds the missing half is filled with the fixed default.
func parseVectorization(text string) *Vectorization {
	chunking := firstLineMatch(chunkingDirectRe, text)
	model := firstLineMatch(modelDirectRe, text)
	if chunking == "" && model == "" {
		chunking = firstLineMatch(chunkingBroadRe, text)
		model = firstLineMatch(modelBroadRe, text)
	}
	if chunking == "" && model == "" {
		return nil
	}
	if chunking == "" {
		chunking = DefaultChunkingStrategy
	}
	if model == "" {
		model = DefaultModelRecommendation
	}
	return &Vectorization{
		Model:               model,
		Chunking:            chunking,
		ModelExplanation:    modelExplanationPlaceholder,
		ChunkingExplanation: chunkingExplanationPlaceholder,
	}
}

func firstLineMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := m[1]
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
