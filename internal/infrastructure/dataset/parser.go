// Package dataset loads, validates and cleans property-listing datasets
// from files, object storage or a relational table.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser reads delimited listing data with encoding checks. Header names
// are normalized (trimmed, lowercased) so schema validation is
// insensitive to header casing in the source.
type Parser struct {
	comma      rune
	lazyQuotes bool
	trimSpace  bool
	headers    []string
	headerSet  map[string]int
	currentRow int
	dataRows   int
	reader     *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithComma sets the field delimiter (default is comma)
func WithComma(c rune) ParserOption {
	return func(p *Parser) {
		p.comma = c
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *Parser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *Parser) {
		p.trimSpace = trim
	}
}

// NewParser creates a parser over r. The stream must be UTF-8; a leading
// BOM is stripped.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		comma:      ',',
		lazyQuotes: true,
		trimSpace:  true,
		headerSet:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReader(r)

	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := checkUTF8(buf); err != nil {
		return nil, err
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.comma
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.TrimLeadingSpace = p.trimSpace
	p.reader.FieldsPerRecord = -1 // rows may be ragged, missing cells read as empty

	return p, nil
}

// NewParserFromBytes creates a parser over an in-memory dataset
func NewParserFromBytes(data []byte, opts ...ParserOption) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

// checkUTF8 validates the leading window of the stream is UTF-8
func checkUTF8(r *bufio.Reader) error {
	const window = 4096
	head, err := r.Peek(window)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read dataset for encoding check: %w", err)
	}
	if len(head) == 0 {
		return ErrEmptyDataset
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row and normalizes the column names
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		p.headerSet[name] = i
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}

	p.currentRow = 1 // header occupies line 1

	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a normalized header name is present
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerSet[name]
	return ok
}

// ValidateHeaders returns the required headers absent from the dataset
func (p *Parser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one parsed data row keyed by normalized header name
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column by normalized header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value for a column, or defaultVal when the
// column is absent or empty.
func (r *Row) GetOrDefault(header, defaultVal string) string {
	if v, ok := r.Data[header]; ok && v != "" {
		return v
	}
	return defaultVal
}

// IsEmpty reports whether every cell in the row is empty
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. Short rows are padded with empty
// cells; extra cells beyond the header are kept only in RawFields.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		p.currentRow++
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	p.currentRow++
	p.dataRows++

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headers)),
		RawFields:  record,
	}
	for i, header := range p.headers {
		if i < len(record) {
			v := record[i]
			if p.trimSpace {
				v = strings.TrimSpace(v)
			}
			row.Data[header] = v
		} else {
			row.Data[header] = ""
		}
	}

	return row, nil
}

// ReadAllRows reads every remaining data row, skipping fully-empty rows
func (p *Parser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CurrentRow returns the current 1-based line number
func (p *Parser) CurrentRow() int {
	return p.currentRow
}

// DataRows returns the number of data rows read so far
func (p *Parser) DataRows() int {
	return p.dataRows
}
