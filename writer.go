package laxcsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	errNilWriter      = errors.New("laxcsv: writer is nil")
	errWriterNoTarget = errors.New("laxcsv: writer destination cannot be nil")
)

// Writer serializes records as CSV text. Fields are joined with the
// configured delimiter, each record is terminated with a single LF, and a
// field is quoted only when it contains the delimiter, the quote character,
// CR, or LF, with embedded quotes doubled. Every record is handed to the
// destination before Write returns; the internal buffer assembles exactly
// one record at a time.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte

	err error
}

// NewWriter creates a new Writer emitting to dst, panicking if dst is nil.
func NewWriter(dst io.Writer) *Writer {
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriterSize(dst, defaultBufferSize),
		Comma: ',',
		Quote: '"',
	}
}

// Reset updates the underlying destination while preserving the configuration.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single record terminated with LF and hands it to the
// destination. Destination failures are sticky: once a write fails, every
// subsequent call returns the same error.
func (w *Writer) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.Comma
	if comma == 0 {
		comma = ','
	}
	quote := w.Quote
	if quote == 0 {
		quote = '"'
	}

	for i := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				return w.fail(err)
			}
		}
		if err := w.writeField(record[i], comma, quote); err != nil {
			return w.fail(err)
		}
	}
	if err := w.dst.WriteByte('\n'); err != nil {
		return w.fail(err)
	}
	if err := w.dst.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteValues renders arbitrary values to their canonical text form and
// writes them as one record. Numbers render as decimal text, nil as an
// empty field.
func (w *Writer) WriteValues(record []any) error {
	if w == nil {
		return errNilWriter
	}
	fields := make([]string, len(record))
	for i, v := range record {
		fields[i] = formatValue(v)
	}
	return w.Write(fields)
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) fail(err error) error {
	w.err = errors.Wrap(err, "laxcsv: write record")
	return w.err
}

func (w *Writer) writeField(field string, comma, quote byte) error {
	if !fieldNeedsQuote(field, comma, quote) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}
	for {
		i := strings.IndexByte(field, quote)
		if i < 0 {
			break
		}
		if _, err := w.dst.WriteString(field[:i]); err != nil {
			return err
		}
		if _, err := w.dst.Write([]byte{quote, quote}); err != nil {
			return err
		}
		field = field[i+1:]
	}
	if _, err := w.dst.WriteString(field); err != nil {
		return err
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote byte) bool {
	return strings.IndexByte(field, comma) >= 0 ||
		strings.IndexByte(field, quote) >= 0 ||
		strings.IndexByte(field, '\n') >= 0 ||
		strings.IndexByte(field, '\r') >= 0
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
