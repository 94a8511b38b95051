package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicedesk/internal/model"
	"invoicedesk/internal/normalize"
)

// Tabular extracts a dataset from a spreadsheet (XLSX/XLS) or CSV. Only
// the first worksheet of a workbook is read.
type Tabular struct{}

func (Tabular) Extract(ctx context.Context, file File) (*model.Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.Contains(strings.ToLower(file.ContentType), "csv") {
		rows, err = readCSV(file.Data)
	} else {
		rows, err = readWorkbook(file.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file.Name, err)
	}
	if len(rows) == 0 {
		return model.NewDataset(), nil
	}

	headers, dataRows := splitHeader(rows)

	rc := normalize.NewRowContext(headers, time.Now())
	for n, raw := range dataRows {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(raw) {
				row[header] = raw[i]
			}
		}
		if err := rc.NormalizeRow(row); err != nil {
			slog.Warn("Skipping row", "file", file.Name, "row", n+1, "error", err)
		}
	}

	return rc.Dataset(), nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// splitHeader decides whether the first row is a header row or data.
// A row whose non-empty cells are all non-numeric looks like labels;
// otherwise headers are synthesized from column letters and every row is
// treated as data.
func splitHeader(rows [][]string) ([]string, [][]string) {
	if looksLikeHeader(rows[0]) {
		return rows[0], rows[1:]
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := make([]string, width)
	for i := range headers {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			name = fmt.Sprintf("Col%d", i+1)
		}
		headers[i] = name
	}
	return headers, rows
}

func looksLikeHeader(row []string) bool {
	nonEmpty := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		nonEmpty++
		if _, ok := normalize.ParseNumber(cell); ok {
			return false
		}
	}
	return nonEmpty > 0
}
