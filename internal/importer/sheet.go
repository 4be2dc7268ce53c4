package importer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet holds the raw cell matrix of the first worksheet. Missing trailing
// cells are absent from the row slices; Cell treats them as empty strings.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadSheet decodes the uploaded spreadsheet bytes and returns the first
// worksheet as a matrix of string cell values. Subsequent sheets are ignored.
func ReadSheet(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidDocument)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: first sheet is empty", ErrInvalidDocument)
	}

	return &Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

// CheckHeader validates the header row against the expected column names,
// positionally and case-insensitively. This is the one eager, batch-fatal
// validation: any mismatch fails before row processing starts.
func (s *Sheet) CheckHeader(expected []string) error {
	if len(s.Header) < len(expected) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrHeaderMismatch, len(expected), len(s.Header))
	}
	for i, want := range expected {
		got := strings.TrimSpace(s.Header[i])
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("%w: column %d should be %q, got %q", ErrHeaderMismatch, i+1, want, got)
		}
	}
	return nil
}

// Cell returns the trimmed cell value at the given zero-based data row and
// column, or "" when the row is ragged and the cell is absent.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	cells := s.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}
