// # LaxCSV: A Forgiving Streaming CSV Codec for Go
//
// LaxCSV is a streaming CSV reader and writer built around a deliberately
// permissive grammar: the reader never rejects malformed quoting. Quote
// characters toggle quoted mode wherever they appear, unterminated quotes
// consume the rest of the input as one field, and the only terminal
// condition a caller ever sees is end of input. The writer is the exact
// dual: it quotes a field only when the field contains the delimiter, the
// quote character, or a line break, doubling embedded quotes, so whatever
// the writer emits the reader recovers verbatim.
//
// # Features
//
// - Pull-based streaming reader with configurable delimiter and quote characters and minimal copying.
// - Best-effort grammar: no parse errors, ever; garbage in, fields out.
// - LF-terminated writer with structural quoting and value coercion via `Writer.WriteValues`.
// - Optional record reuse (`Reader.ReuseRecord`) for allocation-free iteration.
// - Benchmarks against encoding/csv, fuzz targets, and table-driven unit tests.
//
// # Getting Started
//
// The module path is `github.com/laxcsv/laxcsv`. Construct a Reader around any
// io.Reader and call Read until io.EOF, or ReadAll to drain the stream; the
// Writer wraps any io.Writer and hands each record to it as it is written.
package laxcsv
