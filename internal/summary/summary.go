package summary

import "strings"

// Kind discriminates the variant carried by a FileSummary.
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindJSON        Kind = "json"
	KindText        Kind = "text"
	KindPDF         Kind = "pdf"
	KindDocument    Kind = "document"
	KindUnknown     Kind = "unknown"
)

// FileSummary is the structural preview of one uploaded file. Exactly one of
// the variant pointers matching Kind is set; text, pdf and document all carry
// a TextSummary. Immutable once produced.
type FileSummary struct {
	Name        string              `json:"name"`
	Kind        Kind                `json:"kind"`
	Spreadsheet *SpreadsheetSummary `json:"spreadsheet,omitempty"`
	JSON        *JSONSummary        `json:"json,omitempty"`
	Text        *TextSummary        `json:"text,omitempty"`
}

type SpreadsheetSummary struct {
	Headers    []string   `json:"headers"`
	SampleRows [][]string `json:"sample_rows,omitempty"`
	SheetCount int        `json:"sheet_count"`
	RowCount   int        `json:"row_count"`
}

type JSONSummary struct {
	Keys        []string `json:"keys"`
	Depth       int      `json:"depth"`
	ItemCount   int      `json:"item_count"`
	ArrayCount  int      `json:"array_count"`
	ObjectCount int      `json:"object_count"`
	Sample      string   `json:"sample,omitempty"`
}

type TextSummary struct {
	Preview        string `json:"preview"`
	Length         int    `json:"length"`
	LineCount      int    `json:"line_count"`
	WordCount      int    `json:"word_count"`
	ParagraphCount int    `json:"paragraph_count"`
}

// Normalize fills Kind from the populated variant when the caller left it
// empty and clears variants that do not match the kind.
func (f FileSummary) Normalize() FileSummary {
	f.Name = strings.TrimSpace(f.Name)
	if f.Kind == "" {
		switch {
		case f.Spreadsheet != nil:
			f.Kind = KindSpreadsheet
		case f.JSON != nil:
			f.Kind = KindJSON
		case f.Text != nil:
			f.Kind = KindText
		default:
			f.Kind = KindUnknown
		}
	}
	switch f.Kind {
	case KindSpreadsheet:
		f.JSON, f.Text = nil, nil
	case KindJSON:
		f.Spreadsheet, f.Text = nil, nil
	case KindText, KindPDF, KindDocument:
		f.Spreadsheet, f.JSON = nil, nil
	default:
		f.Kind = KindUnknown
		f.Spreadsheet, f.JSON, f.Text = nil, nil, nil
	}
	return f
}

// Valid reports whether the summary carries the variant its kind requires.
func (f FileSummary) Valid() bool {
	switch f.Kind {
	case KindSpreadsheet:
		return f.Spreadsheet != nil
	case KindJSON:
		return f.JSON != nil
	case KindText, KindPDF, KindDocument:
		return f.Text != nil
	case KindUnknown:
		return true
	}
	return false
}
