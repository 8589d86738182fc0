package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder turns raw CSV bytes into header-keyed records
type Decoder struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
}

// DecoderOption is a functional option for Decoder configuration
type DecoderOption func(*Decoder)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) DecoderOption {
	return func(dec *Decoder) {
		dec.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) DecoderOption {
	return func(dec *Decoder) {
		dec.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) DecoderOption {
	return func(dec *Decoder) {
		dec.trimSpace = trim
	}
}

// NewDecoder creates a decoder
func NewDecoder(opts ...DecoderOption) *Decoder {
	dec := &Decoder{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// Row is one decoded data row
type Row struct {
	// Number is the 1-based position among data rows, excluding the header
	Number int
	// Line is the physical line the row started on
	Line int
	// Data holds the cell text keyed by header; cells missing from a short row are absent
	Data map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if trimSpaces(v) != "" {
			return false
		}
	}
	return true
}

// Table is a fully decoded CSV file
type Table struct {
	Headers []string
	Rows    []Row
}

// Decode parses the whole file. A header-only or empty file returns ErrEmptyFile.
func (d *Decoder) Decode(data []byte) (*Table, error) {
	reader, err := d.newReader(data)
	if err != nil {
		return nil, err
	}

	headers, err := d.readHeader(reader)
	if err != nil {
		return nil, err
	}

	table := &Table{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
		}

		line, _ := reader.FieldPos(0)
		row := Row{
			Line: line,
			Data: make(map[string]string, len(headers)),
		}
		for i, header := range headers {
			if i >= len(record) {
				break
			}
			value := record[i]
			if d.trimSpace {
				value = trimSpaces(value)
			}
			row.Data[header] = value
		}

		if row.IsEmpty() {
			continue
		}

		row.Number = len(table.Rows) + 1
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	return table, nil
}

// InferHeaders reads only the header line; header-only files are accepted
func (d *Decoder) InferHeaders(data []byte) ([]string, error) {
	reader, err := d.newReader(data)
	if err != nil {
		return nil, err
	}
	return d.readHeader(reader)
}

func (d *Decoder) newReader(data []byte) (*csv.Reader, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = d.delimiter
	reader.LazyQuotes = d.lazyQuotes
	reader.TrimLeadingSpace = d.trimSpace
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	return reader, nil
}

func (d *Decoder) readHeader(reader *csv.Reader) ([]string, error) {
	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	headers := make([]string, len(record))
	seen := make(map[string]bool, len(record))
	for i, h := range record {
		header := trimSpaces(h)
		if header == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidHeader, i+1)
		}
		if seen[header] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidHeader, header)
		}
		seen[header] = true
		headers[i] = header
	}

	return headers, nil
}

// Decode parses data with the default decoder settings
func Decode(data []byte) (*Table, error) {
	return NewDecoder().Decode(data)
}

// InferHeaders reads the header line with the default decoder settings
func InferHeaders(data []byte) ([]string, error) {
	return NewDecoder().InferHeaders(data)
}

// trimSpaces trims whitespace from a string
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}

	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}

	return s[start:end]
}

// isWhitespace checks if a rune is whitespace
func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
