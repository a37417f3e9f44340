package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Warning codes attached to per-cell parse problems
const (
	ErrCodeDatasetNumeric  = "ERR_DATASET_NUMERIC"
	ErrCodeDatasetRequired = "ERR_DATASET_REQUIRED"
)

// Dataset-level errors
var (
	// ErrEmptyDataset is returned when the source yields no bytes
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrInvalidEncoding is returned when the source is not valid UTF-8
	ErrInvalidEncoding = errors.New("dataset is not valid UTF-8")

	// ErrMissingHeader is returned when the dataset has no header row
	ErrMissingHeader = errors.New("dataset missing header row")
)

// RowWarning records a parse problem in one cell of one source row.
// Warnings never fail a load: the affected row is dropped and counted.
type RowWarning struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (w RowWarning) Error() string {
	if w.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", w.Row, w.Column, w.Message)
	}
	return fmt.Sprintf("row %d: %s", w.Row, w.Message)
}

// NewNumericWarning records a cell whose value could not be parsed as a number
func NewNumericWarning(row int, column, value string) RowWarning {
	return RowWarning{
		Row:     row,
		Column:  column,
		Code:    ErrCodeDatasetNumeric,
		Message: fmt.Sprintf("value %q is not numeric", value),
		Value:   value,
	}
}

// WarningCollection accumulates row warnings up to a cap. The total count
// keeps growing past the cap so reports stay accurate.
type WarningCollection struct {
	warnings   []RowWarning
	maxKept    int
	totalCount int
}

// NewWarningCollection creates a collection keeping at most maxKept warnings
func NewWarningCollection(maxKept int) *WarningCollection {
	if maxKept <= 0 {
		maxKept = 100
	}
	return &WarningCollection{
		warnings: make([]RowWarning, 0, maxKept),
		maxKept:  maxKept,
	}
}

// Add records a warning
func (wc *WarningCollection) Add(w RowWarning) {
	wc.totalCount++
	if len(wc.warnings) < wc.maxKept {
		wc.warnings = append(wc.warnings, w)
	}
}

// Warnings returns the kept warnings
func (wc *WarningCollection) Warnings() []RowWarning {
	return wc.warnings
}

// Count returns the number of kept warnings
func (wc *WarningCollection) Count() int {
	return len(wc.warnings)
}

// TotalCount returns all recorded warnings including those past the cap
func (wc *WarningCollection) TotalCount() int {
	return wc.totalCount
}

// HasWarnings reports whether anything was recorded
func (wc *WarningCollection) HasWarnings() bool {
	return wc.totalCount > 0
}

// IsTruncated reports whether warnings were recorded past the cap
func (wc *WarningCollection) IsTruncated() bool {
	return wc.totalCount > wc.maxKept
}

// Summary returns warning counts grouped by code
func (wc *WarningCollection) Summary() map[string]int {
	summary := make(map[string]int)
	for _, w := range wc.warnings {
		summary[w.Code]++
	}
	return summary
}

// String renders the collection for logs and CLI output
func (wc *WarningCollection) String() string {
	if !wc.HasWarnings() {
		return "no warnings"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d warning(s)", wc.totalCount))
	if wc.IsTruncated() {
		sb.WriteString(fmt.Sprintf(" (showing first %d)", wc.maxKept))
	}
	sb.WriteString(":\n")
	for _, w := range wc.warnings {
		sb.WriteString(fmt.Sprintf("  - %s\n", w.Error()))
	}
	return sb.String()
}
