package bulk

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/regworks/companies-register/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
	}
)

// Upload columns. The value column holds the proposed value as a JSON object.
const (
	columnKind          = "kind"
	columnSubtype       = "subtype"
	columnEffectiveDate = "effectivedate"
	columnValue         = "value"
)

type tableData struct {
	headers []string
	rows    [][]string
}

// ParseUpload reads a CSV or XLSX change-request file into requests. Rows
// that cannot be shaped into a request at all come back as error strings
// keyed by row number; they belong in the bulk result's top-level error list.
// A file-level failure (unreadable payload, missing header) is returned as an
// error instead.
func ParseUpload(fileName string, payload []byte, requestedBy string) ([]domain.ChangeRequest, []string, error) {
	table, err := parseTable(fileName, payload)
	if err != nil {
		return nil, nil, err
	}

	columns := make(map[string]int, len(table.headers))
	for idx, header := range table.headers {
		columns[strings.ToLower(strings.TrimSpace(header))] = idx
	}
	if _, ok := columns[columnKind]; !ok {
		return nil, nil, fmt.Errorf("missing required column %q", columnKind)
	}
	if _, ok := columns[columnValue]; !ok {
		return nil, nil, fmt.Errorf("missing required column %q", columnValue)
	}

	requests := make([]domain.ChangeRequest, 0, len(table.rows))
	rowErrors := make([]string, 0)

	for rowIdx, row := range table.rows {
		rowNumber := rowIdx + 2 // account for the header row (1-based)
		req, err := buildRequest(columns, row, requestedBy)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowNumber, err))
			continue
		}
		requests = append(requests, req)
	}

	return requests, rowErrors, nil
}

func buildRequest(columns map[string]int, row []string, requestedBy string) (domain.ChangeRequest, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rawValue := cell(columnValue)
	if rawValue == "" {
		return domain.ChangeRequest{}, errors.New("value is required")
	}
	var proposed map[string]any
	if err := json.Unmarshal([]byte(rawValue), &proposed); err != nil {
		return domain.ChangeRequest{}, fmt.Errorf("value is not a JSON object: %v", err)
	}

	req := domain.ChangeRequest{
		Kind:          domain.ChangeKind(strings.ToUpper(cell(columnKind))),
		Subtype:       strings.ToUpper(cell(columnSubtype)),
		ProposedValue: proposed,
		RequestedBy:   requestedBy,
	}

	if raw := cell(columnEffectiveDate); raw != "" {
		effective, err := parseDate(raw)
		if err != nil {
			return domain.ChangeRequest{}, err
		}
		req.EffectiveDate = effective
	}

	return req, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized effective date %q", raw)
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	if len(payload) == 0 {
		return tableData{}, errors.New("file is empty")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	var table tableData
	for _, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if table.headers == nil {
			table.headers = row
			continue
		}
		table.rows = append(table.rows, row)
	}
	if table.headers == nil {
		return tableData{}, errors.New("no header row detected")
	}
	return table, nil
}

func cleanRow(row []string) []string {
	cleaned := make([]string, 0, len(row))
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}
