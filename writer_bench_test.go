package laxcsv

import (
	stdcsv "encoding/csv"
	"io"
	"testing"
)

func benchmarkRecords() [][]string {
	records := make([][]string, 0, 256)
	for i := 0; i < 256; i++ {
		records = append(records, []string{
			"plain-field-0123456789",
			"needs,quoting",
			"embedded \"quotes\" here",
			"multi\nline value",
			"",
		})
	}
	return records
}

func BenchmarkWriter(b *testing.B) {
	records := benchmarkRecords()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := NewWriter(io.Discard)
		if err := w.WriteAll(records); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodingCSVWriter(b *testing.B) {
	records := benchmarkRecords()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := stdcsv.NewWriter(io.Discard)
		if err := w.WriteAll(records); err != nil {
			b.Fatal(err)
		}
	}
}
