package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/dataset"
)

// ErrNoData is returned when a source contains nothing to parse.
var ErrNoData = errors.New("No data provided")

// ParseCSV parses comma-separated text into a dataset.
func ParseCSV(data []byte, hasHeader bool) (*dataset.Dataset, error) {
	return parseDelimited(data, ',', hasHeader, "csv")
}

// ParseTSV parses tab-separated text into a dataset.
func ParseTSV(data []byte, hasHeader bool) (*dataset.Dataset, error) {
	return parseDelimited(data, '\t', hasHeader, "tsv")
}

// ParseDelimited parses text split on an arbitrary delimiter with the
// same quoting rules as ParseCSV.
func ParseDelimited(data []byte, comma rune, hasHeader bool) (*dataset.Dataset, error) {
	kind := "csv"
	if comma == '\t' {
		kind = "tsv"
	}
	return parseDelimited(data, comma, hasHeader, kind)
}

// parseDelimited reads delimiter-separated text with RFC 4180 quoting:
// a quoted field may hold the delimiter and embedded newlines, and a
// doubled quote is an escaped literal quote. Ragged rows are preserved
// as parsed, neither padded nor truncated.
func parseDelimited(data []byte, comma rune, hasHeader bool, kind string) (*dataset.Dataset, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrNoData
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var columns []string
	if hasHeader {
		columns = records[0]
		records = records[1:]
	} else {
		widest := 0
		for _, rec := range records {
			if len(rec) > widest {
				widest = len(rec)
			}
		}
		columns = make([]string, widest)
		for i := range columns {
			columns[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		rows[i] = row
	}

	return dataset.New(columns, rows, &dataset.SourceInfo{Kind: kind}), nil
}

// WriteCSV encodes a dataset as comma-separated text: a header row of
// column names followed by one record per row, cells rendered through
// their display coercion.
func WriteCSV(ds *dataset.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, errors.New("No input dataset provided")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i := range record {
			record[i] = dataset.ToString(ds.Cell(row, i))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
