package laxcsv

import (
	"bytes"
	"io"
	"unsafe"

	"github.com/pkg/errors"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

// Reader parses CSV records from a stream using a forgiving grammar.
//
// Malformed quoting is never rejected. A quote character toggles quoted mode
// wherever it appears, a doubled quote inside a quoted region yields one
// literal quote, and an unterminated quoted region simply consumes the rest
// of the input as a single field. The only terminal signal is io.EOF, raised
// once the source is exhausted and no partial row remains.
//
// Lookahead (the escaped-quote check and the CR->LF collapse) inspects only
// bytes already pulled from the source. A quote pair or a CRLF split exactly
// across two source reads is therefore treated as two separate characters.
// With the default 4 KiB pull size this only matters for sources that return
// data in very small chunks.
//
// The Reader never closes its source; stream ownership stays with the caller.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	record      []string
	dataBuf     []byte
	fieldBounds []int
	finished    bool
}

// NewReader creates a Reader that consumes CSV data from src, panicking if
// src is nil, and sizes the pull buffer for streaming use.
func NewReader(src io.Reader) *Reader {
	if src == nil {
		panic("laxcsv: reader source cannot be nil")
	}

	return &Reader{
		src:         src,
		Comma:       ',',
		Quote:       '"',
		buf:         make([]byte, defaultBufferSize),
		record:      make([]string, 0, 16),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 32),
	}
}

// Read parses the next record from the underlying stream. It returns the
// field values (which may reuse internal storage when ReuseRecord is true);
// io.EOF signals that no more records remain. The only other errors are
// failures reported by the source itself.
func (r *Reader) Read() ([]string, error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	if r.finished {
		return nil, io.EOF
	}

	comma := r.Comma
	if comma == 0 {
		comma = ','
	}
	quote := r.Quote
	if quote == 0 {
		quote = '"'
	}

	// Reset state for assembling the next record, reusing slices when allowed.
	if r.ReuseRecord {
		r.record = r.record[:0]
	} else {
		r.record = nil
	}
	r.dataBuf = r.dataBuf[:0]
	r.fieldBounds = r.fieldBounds[:0]

	inQuotes := false
	fieldStart := 0

	for {
		// Ensure the working buffer has data before parsing the next byte.
		if r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				err := r.bufErr
				r.bufErr = nil
				if err == io.EOF {
					r.finished = true
					// A field in progress, including an open quoted region,
					// still becomes the final field of the last row.
					if len(r.dataBuf) > fieldStart || inQuotes {
						r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
					}
					if len(r.fieldBounds) > 0 {
						return r.buildRecord(), nil
					}
					return nil, io.EOF
				}
				return nil, errors.Wrap(err, "laxcsv: read from source")
			}

			// Pull the next chunk from the source.
			n, err := r.src.Read(r.buf)
			if n == 0 {
				if err != nil {
					r.bufErr = err
				}
				continue
			}
			r.bufPos = 0
			r.bufLen = n
			r.bufErr = err
		}

		if !inQuotes {
			// Fast-path plain bytes until a quote is encountered.
			data := r.buf[r.bufPos:r.bufLen]
			if len(data) == 0 {
				continue
			}

			quoteIdx := bytes.IndexByte(data, quote)
			switch {
			case quoteIdx == -1:
				if r.consumePlain(comma, &fieldStart) {
					return r.buildRecord(), nil
				}
				if r.bufPos >= r.bufLen {
					continue
				}
			case quoteIdx > 0:
				// Temporarily limit the buffer to process plain bytes up to the quote.
				originalLen := r.bufLen
				r.bufLen = r.bufPos + quoteIdx
				recordDone := r.consumePlain(comma, &fieldStart)
				r.bufLen = originalLen
				if recordDone {
					return r.buildRecord(), nil
				}
				if r.bufPos >= r.bufLen {
					continue
				}
			}
		}

		b := r.buf[r.bufPos]
		r.bufPos++

		if inQuotes {
			if b == quote {
				// A doubled quote is an escaped quote. The lookahead only
				// inspects buffered bytes; see the type documentation.
				if r.bufPos < r.bufLen && r.buf[r.bufPos] == quote {
					r.bufPos++
					r.dataBuf = append(r.dataBuf, quote)
					continue
				}
				inQuotes = false
				continue
			}

			// Append the contiguous literal run up to the next quote.
			start := r.bufPos - 1
			if idx := bytes.IndexByte(r.buf[r.bufPos:r.bufLen], quote); idx >= 0 {
				r.bufPos += idx
			} else {
				r.bufPos = r.bufLen
			}
			r.dataBuf = append(r.dataBuf, r.buf[start:r.bufPos]...)
			continue
		}

		switch b {
		case comma:
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			fieldStart = len(r.dataBuf)
		case '\n':
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			return r.buildRecord(), nil
		case '\r':
			// CRLF collapses to one terminator when the LF is already buffered.
			if r.bufPos < r.bufLen && r.buf[r.bufPos] == '\n' {
				r.bufPos++
			}
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			return r.buildRecord(), nil
		case quote:
			// A quote toggles quoted mode wherever it appears, field start or not.
			inQuotes = true
		default:
			start := r.bufPos - 1
			run := 1
			if r.bufPos < r.bufLen {
				data := r.buf[r.bufPos:r.bufLen]
				for i := 0; i < len(data); i++ {
					c := data[i]
					if c == comma || c == '\n' || c == '\r' || c == quote {
						break
					}
					run++
				}
				r.bufPos += run - 1
			}
			// Copy consecutive plain bytes before the next delimiter.
			r.dataBuf = append(r.dataBuf, r.buf[start:start+run]...)
		}
	}
}

// ReadAll exhausts the reader, repeatedly calling Read to collect the
// remaining records in order until io.EOF.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// buildRecord maps the accumulated fieldBounds onto the data buffer,
// respecting ReuseRecord, and returns the materialised record.
func (r *Reader) buildRecord() []string {
	fieldCount := len(r.fieldBounds) / 2

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) > 0 {
			// Zero-copy string construction so fields can share a single backing buffer.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		r.record[i] = recordStr[r.fieldBounds[2*i]:r.fieldBounds[2*i+1]]
	}
	return r.record
}

// consumePlain consumes unquoted field data up to the next delimiter or
// record terminator within the buffered bytes, updating *fieldStart. It
// reports whether a record terminator was seen.
func (r *Reader) consumePlain(comma byte, fieldStart *int) bool {
	for {
		if r.bufPos >= r.bufLen {
			return false
		}

		// Locate the closest delimiter or record terminator within the buffered bytes.
		data := r.buf[r.bufPos:r.bufLen]
		idxComma := bytes.IndexByte(data, comma)
		idxNewline := bytes.IndexByte(data, '\n')
		idxCR := bytes.IndexByte(data, '\r')

		next := len(data)
		delim := byte(0)

		if idxComma >= 0 && idxComma < next {
			next = idxComma
			delim = comma
		}
		if idxNewline >= 0 && idxNewline < next {
			next = idxNewline
			delim = '\n'
		}
		if idxCR >= 0 && idxCR < next {
			next = idxCR
			delim = '\r'
		}

		// Append the plain run preceding the delimiter and advance.
		if next > 0 {
			r.dataBuf = append(r.dataBuf, data[:next]...)
			r.bufPos += next
		}

		if delim == 0 {
			return false
		}

		r.bufPos++
		switch delim {
		case comma:
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			*fieldStart = len(r.dataBuf)
		case '\n':
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			return true
		case '\r':
			// CRLF collapses to one terminator when the LF is already buffered.
			if r.bufPos < r.bufLen && r.buf[r.bufPos] == '\n' {
				r.bufPos++
			}
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			return true
		}
	}
}
