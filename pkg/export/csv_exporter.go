package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// ContentTypeCSV is the media type of rendered datasets.
const ContentTypeCSV = "text/csv; charset=utf-8"

// CellSeparator joins multi-valued cells such as the session ids a conflict
// touches. It cannot be a comma, which already delimits columns.
const CellSeparator = ";"

// Dataset is one timetable export: sessions or detected conflicts.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// AddRow appends a row keyed by header.
func (d *Dataset) AddRow(row map[string]string) {
	d.Rows = append(d.Rows, row)
}

// JoinCell flattens a list into a single cell, dropping blank entries.
func JoinCell(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, CellSeparator)
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset. Missing cells render empty.
// Headers must be unique since rows are keyed by them.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	seen := make(map[string]struct{}, len(data.Headers))
	for _, header := range data.Headers {
		if _, dup := seen[header]; dup {
			return nil, fmt.Errorf("duplicate csv header %q", header)
		}
		seen[header] = struct{}{}
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
