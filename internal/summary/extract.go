package summary

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Input is one raw uploaded file handed to the summarizers.
type Input struct {
	Name string
	Data []byte
}

// Summarizer turns raw bytes into a FileSummary. Spreadsheet/PDF/Word
// decoding lives outside this module; callers plug those in here.
type Summarizer interface {
	Kind() Kind
	Summarize(name string, data []byte) (FileSummary, error)
}

const (
	previewLimit    = 500
	jsonSampleLimit = 300
	maxSampleKeys   = 25
)

// Sniff guesses the kind of a raw payload. Only the formats this module can
// summarize on its own are recognized; everything else is unknown.
func Sniff(name string, data []byte) Kind {
	switch strings.ToLower(ext(name)) {
	case "json":
		if json.Valid(data) {
			return KindJSON
		}
	case "txt", "md", "csv", "log":
		return KindText
	}
	if json.Valid(data) && len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return KindJSON
	}
	if utf8.Valid(data) {
		return KindText
	}
	return KindUnknown
}

func ext(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// TextSummarizer summarizes plain-text payloads.
type TextSummarizer struct{}

func (TextSummarizer) Kind() Kind { return KindText }

func (TextSummarizer) Summarize(name string, data []byte) (FileSummary, error) {
	text := string(data)
	preview := text
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	lines := strings.Count(text, "\n")
	if len(text) > 0 && !strings.HasSuffix(text, "\n") {
		lines++
	}
	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	return FileSummary{
		Name: name,
		Kind: KindText,
		Text: &TextSummary{
			Preview:        preview,
			Length:         len(text),
			LineCount:      lines,
			WordCount:      len(strings.Fields(text)),
			ParagraphCount: paragraphs,
		},
	}, nil
}

// JSONSummarizer summarizes JSON payloads: top-level keys, nesting depth and
// container counts, plus a truncated sample.
type JSONSummarizer struct{}

func (JSONSummarizer) Kind() Kind { return KindJSON }

func (JSONSummarizer) Summarize(name string, data []byte) (FileSummary, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return FileSummary{}, err
	}
	s := &JSONSummary{}
	s.Depth = walkJSON(v, 1, s)
	s.Keys = topKeys(v)
	sample := string(data)
	if len(sample) > jsonSampleLimit {
		sample = sample[:jsonSampleLimit]
	}
	s.Sample = sample
	return FileSummary{Name: name, Kind: KindJSON, JSON: s}, nil
}

func walkJSON(v any, depth int, s *JSONSummary) int {
	maxDepth := depth
	switch x := v.(type) {
	case map[string]any:
		s.ObjectCount++
		for _, vv := range x {
			s.ItemCount++
			if d := walkJSON(vv, depth+1, s); d > maxDepth {
				maxDepth = d
			}
		}
	case []any:
		s.ArrayCount++
		for _, vv := range x {
			s.ItemCount++
			if d := walkJSON(vv, depth+1, s); d > maxDepth {
				maxDepth = d
			}
		}
	}
	return maxDepth
}

func topKeys(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxSampleKeys {
		keys = keys[:maxSampleKeys]
	}
	return keys
}

// Extractor summarizes uploads with a bounded amount of parallelism. Extra
// summarizers (spreadsheet, pdf, ...) can be registered by kind.
type Extractor struct {
	byKind      map[Kind]Summarizer
	concurrency int
}

func NewExtractor(concurrency int, extra ...Summarizer) *Extractor {
	if concurrency <= 0 {
		concurrency = 4
	}
	byKind := map[Kind]Summarizer{
		KindText: TextSummarizer{},
		KindJSON: JSONSummarizer{},
	}
	for _, s := range extra {
		if s != nil {
			byKind[s.Kind()] = s
		}
	}
	return &Extractor{byKind: byKind, concurrency: concurrency}
}

// SummarizeAll summarizes every input, preserving input order. Files no
// summarizer covers come back as KindUnknown rather than an error.
func (e *Extractor) SummarizeAll(ctx context.Context, inputs []Input) ([]FileSummary, error) {
	out := make([]FileSummary, len(inputs))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = e.summarizeOne(inputs[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Extractor) summarizeOne(in Input) FileSummary {
	kind := Sniff(in.Name, in.Data)
	if s, ok := e.byKind[kind]; ok {
		if fs, err := s.Summarize(in.Name, in.Data); err == nil {
			return fs.Normalize()
		}
	}
	return FileSummary{Name: strings.TrimSpace(in.Name), Kind: KindUnknown}
}
