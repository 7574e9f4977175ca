package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spendwise-app/spendwise-api/models"
	"github.com/spendwise-app/spendwise-api/utils"
)

// ============================================================================
// ROW PARSER
// Turns raw upload bytes into transaction candidates plus per-row errors.
// Malformed data never aborts the file; only file-level corruption does, and
// that is converted into a single row-0 error.
// ============================================================================

// excelEpochOffset is the number of days between the spreadsheet epoch
// (1899-12-30, leap-year bug included) and the Unix epoch.
const excelEpochOffset = 25569

// ParseFile dispatches on the file extension and parses the upload.
func ParseFile(data []byte, filename string) models.ParseResult {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	switch ext {
	case "csv":
		return parseCSV(data)
	case "xlsx", "xls":
		return parseExcel(data)
	default:
		return models.ParseResult{
			Transactions: []models.TransactionCandidate{},
			Errors: []models.ParseError{
				{Row: 0, Error: "Unsupported file format. Use CSV or Excel."},
			},
		}
	}
}

// columnIndexes holds the per-file mapping from required field to column
// position, resolved once from the header row. -1 means the column is absent.
type columnIndexes struct {
	date, amount, desc int
}

func resolveColumns(header []string) columnIndexes {
	cols := columnIndexes{date: -1, amount: -1, desc: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			if cols.date < 0 {
				cols.date = i
			}
		case "amount":
			if cols.amount < 0 {
				cols.amount = i
			}
		case "description", "merchant":
			if cols.desc < 0 {
				cols.desc = i
			}
		}
	}
	return cols
}

func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// validateRow applies the shared row checks and returns a candidate or a
// row-scoped error message. Spreadsheet serial dates are handled by the
// caller before this point.
func validateRow(date, amount, desc string, parsedDate time.Time, haveDate bool) (models.TransactionCandidate, string) {
	if date == "" || amount == "" || desc == "" {
		return models.TransactionCandidate{}, "Missing required fields (date, amount, description)"
	}

	if !haveDate {
		d, err := utils.ParseDate(date)
		if err != nil {
			return models.TransactionCandidate{}, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", date)
		}
		parsedDate = d
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return models.TransactionCandidate{}, fmt.Sprintf("Invalid amount: %s", amount)
	}

	return models.TransactionCandidate{
		Date:        parsedDate,
		Amount:      value,
		Description: desc,
	}, ""
}

// ============================================================================
// CSV PATH
// Rows are dict-like: a column missing from the header shows up as an empty
// field in every row, so missing data is reported per row, not per file.
// ============================================================================

func parseCSV(data []byte) models.ParseResult {
	transactions := []models.TransactionCandidate{}
	errors := []models.ParseError{}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return models.ParseResult{
			Transactions: transactions,
			Errors: []models.ParseError{
				{Row: 0, Error: fmt.Sprintf("CSV parsing failed: %v", csvReadError(err))},
			},
		}
	}

	cols := resolveColumns(header)

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, models.ParseError{
				Row:   rowIdx + 2,
				Error: fmt.Sprintf("Error parsing row: %v", err),
			})
			rowIdx++
			continue
		}

		if isEmptyRecord(record) {
			continue
		}

		date := cellAt(record, cols.date)
		amount := cellAt(record, cols.amount)
		desc := cellAt(record, cols.desc)

		candidate, msg := validateRow(date, amount, desc, time.Time{}, false)
		if msg != "" {
			errors = append(errors, models.ParseError{Row: rowIdx + 2, Error: msg})
			rowIdx++
			continue
		}

		transactions = append(transactions, candidate)
		rowIdx++
	}

	log.Printf("✅ CSV parsed: %d transactions, %d errors", len(transactions), len(errors))
	return models.ParseResult{Transactions: transactions, Errors: errors}
}

func csvReadError(err error) string {
	if err == io.EOF {
		return "empty file"
	}
	return err.Error()
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ============================================================================
// EXCEL PATH
// The sheet presents a fixed column set, so a missing required column is a
// structural failure reported once for the whole file.
// ============================================================================

func parseExcel(data []byte) models.ParseResult {
	transactions := []models.TransactionCandidate{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return excelFailure(fmt.Sprintf("Excel parsing failed: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return excelFailure("Excel parsing failed: workbook has no sheets")
	}

	// Raw cell values keep date cells as epoch serials instead of whatever
	// display format the workbook carries.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return excelFailure(fmt.Sprintf("Excel parsing failed: %v", err))
	}
	if len(rows) == 0 {
		return excelFailure("Excel parsing failed: empty file")
	}

	cols := resolveColumns(rows[0])
	if cols.date < 0 || cols.amount < 0 || cols.desc < 0 {
		return excelFailure("Missing required columns (date, amount, description/merchant)")
	}

	errors := []models.ParseError{}
	for i, record := range rows[1:] {
		rowNum := i + 2

		if isEmptyRecord(record) {
			continue
		}

		date := cellAt(record, cols.date)
		amount := cellAt(record, cols.amount)
		desc := cellAt(record, cols.desc)

		if date == "" || amount == "" || desc == "" {
			errors = append(errors, models.ParseError{
				Row:   rowNum,
				Error: "Missing required fields (date, amount, description)",
			})
			continue
		}

		parsedDate, ok := parseExcelDate(date)
		if !ok {
			errors = append(errors, models.ParseError{
				Row:   rowNum,
				Error: fmt.Sprintf("Invalid date: %s", date),
			})
			continue
		}

		candidate, msg := validateRow(date, amount, desc, parsedDate, true)
		if msg != "" {
			errors = append(errors, models.ParseError{Row: rowNum, Error: msg})
			continue
		}

		transactions = append(transactions, candidate)
	}

	log.Printf("✅ Excel parsed: %d transactions, %d errors", len(transactions), len(errors))
	return models.ParseResult{Transactions: transactions, Errors: errors}
}

// parseExcelDate accepts either an epoch serial (numeric cell) or a strict
// YYYY-MM-DD string.
func parseExcelDate(value string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		return excelSerialToTime(serial), true
	}
	d, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// excelSerialToTime converts a spreadsheet day serial to a UTC timestamp.
func excelSerialToTime(serial float64) time.Time {
	seconds := (serial - excelEpochOffset) * 86400
	return time.Unix(int64(seconds), 0).UTC()
}

func excelFailure(msg string) models.ParseResult {
	return models.ParseResult{
		Transactions: []models.TransactionCandidate{},
		Errors:       []models.ParseError{{Row: 0, Error: msg}},
	}
}
