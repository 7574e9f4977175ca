package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFileUnsupportedFormat(t *testing.T) {
	result := ParseFile([]byte("whatever"), "statement.pdf")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Equal(t, "Unsupported file format. Use CSV or Excel.", result.Errors[0].Error)
}

func TestParseCSVValidRows(t *testing.T) {
	csv := "Date,Amount,Merchant\n" +
		"2024-01-05,42.50,  Coffee Shop  \n" +
		"2024-01-06,100,Grocery Store\n"

	result := ParseFile([]byte(csv), "upload.csv")

	require.Len(t, result.Transactions, 2)
	assert.Empty(t, result.Errors)

	first := result.Transactions[0]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 42.50, first.Amount)
	assert.Equal(t, "Coffee Shop", first.Description)
}

func TestParseCSVRowNumbering(t *testing.T) {
	// Header is row 1, so the second data row is spreadsheet row 3.
	csv := "date,amount,description\n" +
		"2024-01-05,10,Lunch\n" +
		"not-a-date,20,Dinner\n" +
		"2024-01-07,30,Groceries\n"

	result := ParseFile([]byte(csv), "upload.csv")

	require.Len(t, result.Transactions, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "Invalid date format")
}

func TestParseCSVRejectsBadAmounts(t *testing.T) {
	csv := "date,amount,description\n" +
		"2024-01-05,-50,Refund\n" +
		"2024-01-06,abc,Chaos\n" +
		"2024-01-07,15.25,Lunch\n"

	result := ParseFile([]byte(csv), "upload.csv")

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 15.25, result.Transactions[0].Amount)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "Invalid amount: -50")
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Error, "Invalid amount: abc")
}

func TestParseCSVMissingFields(t *testing.T) {
	csv := "date,amount,description\n" +
		"2024-01-05,,Lunch\n" +
		"2024-01-06,20,\n"

	result := ParseFile([]byte(csv), "upload.csv")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.Equal(t, "Missing required fields (date, amount, description)", e.Error)
	}
}

func TestParseCSVMissingColumnFailsPerRow(t *testing.T) {
	// No amount column at all: the delimited path treats that as a property
	// of every row payload, not a structural failure.
	csv := "date,description\n" +
		"2024-01-05,Lunch\n" +
		"2024-01-06,Dinner\n"

	result := ParseFile([]byte(csv), "upload.csv")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, 3, result.Errors[1].Row)
}

func TestParseCSVEmptyFile(t *testing.T) {
	result := ParseFile([]byte{}, "upload.csv")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "CSV parsing failed")
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseExcelValidRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Date", "Amount", "Description"},
		{"2024-01-05", 42.5, "Coffee Shop"},
		{44927, 100.0, "New Year Groceries"}, // epoch serial for 2023-01-01
	})

	result := ParseFile(data, "upload.xlsx")

	require.Len(t, result.Transactions, 2)
	assert.Empty(t, result.Errors)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), result.Transactions[0].Date)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), result.Transactions[1].Date)
}

func TestParseExcelMerchantColumn(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"DATE", "AMOUNT", "MERCHANT"},
		{"2024-02-01", 12.0, "Bakery"},
	})

	result := ParseFile(data, "upload.xls")

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Bakery", result.Transactions[0].Description)
}

func TestParseExcelMissingColumnsIsStructural(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Date", "Description"},
		{"2024-01-05", "Lunch"},
		{"2024-01-06", "Dinner"},
	})

	result := ParseFile(data, "upload.xlsx")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Equal(t, "Missing required columns (date, amount, description/merchant)", result.Errors[0].Error)
}

func TestParseExcelRowLevelErrors(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Date", "Amount", "Description"},
		{"2024-01-05", -3.0, "Refund"},
		{"garbage", 10.0, "Lunch"},
		{"2024-01-07", 20.0, "Dinner"},
	})

	result := ParseFile(data, "upload.xlsx")

	require.Len(t, result.Transactions, 1)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "Invalid amount")
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Error, "Invalid date: garbage")
}

func TestParseExcelGarbageBytes(t *testing.T) {
	result := ParseFile([]byte("this is not a workbook"), "upload.xlsx")

	assert.Empty(t, result.Transactions)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "Excel parsing failed")
}

func TestExcelSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), excelSerialToTime(25569))
	assert.Equal(t, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), excelSerialToTime(25570))
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), excelSerialToTime(44927))
}
