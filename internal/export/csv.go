// internal/export/csv.go
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteCSV writes the header and rows with every field quoted and embedded
// quotes doubled. encoding/csv only quotes when needed, so fields are
// written by hand here.
func (t Table) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeCSVRecord(bw, t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeCSVRecord(bw, row); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeCSVRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
		if _, err := w.WriteString(QuoteCSVField(field)); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// QuoteCSVField wraps value in double quotes, doubling any quotes inside.
func QuoteCSVField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// ParseCSV reads a CSV document into records, header first. Quoted fields
// are read by the rules QuoteCSVField writes them with: the content between
// the quotes is kept byte for byte, so a CRLF inside a field survives.
// Records end at LF or CRLF outside quotes; blank lines are skipped.
func ParseCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		quoted   bool
		inQuotes bool
		dirty    bool
		line     = 1
	)
	endField := func() {
		record = append(record, field.String())
		field.Reset()
		quoted = false
	}
	endRecord := func() {
		if dirty {
			endField()
			records = append(records, record)
		}
		record, dirty = nil, false
	}

	for {
		c, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}

		if inQuotes {
			if c == '"' {
				next, _, err := br.ReadRune()
				if err == nil && next == '"' {
					field.WriteRune('"')
					continue
				}
				if err == nil {
					_ = br.UnreadRune()
				}
				inQuotes = false
				continue
			}
			if c == '\n' {
				line++
			}
			field.WriteRune(c)
			continue
		}

		switch c {
		case '"':
			if quoted || field.Len() > 0 {
				return nil, fmt.Errorf("parse csv: line %d: bare quote in field", line)
			}
			quoted, inQuotes, dirty = true, true, true
		case ',':
			dirty = true
			endField()
		case '\r':
			next, _, err := br.ReadRune()
			if err == nil && next != '\n' {
				_ = br.UnreadRune()
			}
			endRecord()
			line++
		case '\n':
			endRecord()
			line++
		default:
			if quoted {
				return nil, fmt.Errorf("parse csv: line %d: text after closing quote", line)
			}
			dirty = true
			field.WriteRune(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("parse csv: line %d: unterminated quoted field", line)
	}
	endRecord()
	return records, nil
}
