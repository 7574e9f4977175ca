package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise-app/spendwise-api/models"
)

func txn(date string, amount float64, category string) models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.Transaction{Date: d, Amount: amount, Category: category}
}

func TestCalculateSpendingSummaryEmpty(t *testing.T) {
	summary := CalculateSpendingSummary(nil)

	assert.Equal(t, 0.0, summary.TotalSpend)
	assert.Equal(t, 0.0, summary.MonthlyAverage)
	assert.Equal(t, 0, summary.TransactionCount)
	assert.Empty(t, summary.TopCategories)
}

func TestCalculateSpendingSummarySingleMonth(t *testing.T) {
	transactions := []models.Transaction{
		txn("2024-03-01", 100, "Food"),
		txn("2024-03-10", 50, "Food"),
		txn("2024-03-20", 25, "Rent"),
	}

	summary := CalculateSpendingSummary(transactions)

	assert.Equal(t, 175.00, summary.TotalSpend)
	// One calendar month spans 0 boundaries; the divisor clamps to 1.
	assert.Equal(t, 175.00, summary.MonthlyAverage)
	assert.Equal(t, 3, summary.TransactionCount)

	require.Len(t, summary.TopCategories, 2)
	assert.Equal(t, models.CategoryAmount{Category: "Food", Amount: 150.00}, summary.TopCategories[0])
	assert.Equal(t, models.CategoryAmount{Category: "Rent", Amount: 25.00}, summary.TopCategories[1])

	assert.Equal(t, txn("2024-03-01", 0, "").Date, summary.DateRange.Start)
	assert.Equal(t, txn("2024-03-20", 0, "").Date, summary.DateRange.End)
}

func TestCalculateSpendingSummaryMonthSpan(t *testing.T) {
	transactions := []models.Transaction{
		txn("2024-01-15", 300, "Food"),
		txn("2024-03-10", 100, "Rent"),
	}

	summary := CalculateSpendingSummary(transactions)

	// Jan→Mar crosses two month boundaries regardless of day-of-month.
	assert.Equal(t, 400.00, summary.TotalSpend)
	assert.Equal(t, 200.00, summary.MonthlyAverage)
}

func TestCalculateSpendingSummaryTopCategoryCap(t *testing.T) {
	transactions := make([]models.Transaction, 0, 8)
	for i := 0; i < 8; i++ {
		transactions = append(transactions,
			txn("2024-05-01", float64(10*(i+1)), fmt.Sprintf("Category%d", i)))
	}

	summary := CalculateSpendingSummary(transactions)

	require.Len(t, summary.TopCategories, 5)
	for i := 0; i < 4; i++ {
		assert.Greater(t, summary.TopCategories[i].Amount, summary.TopCategories[i+1].Amount)
	}
	assert.Equal(t, 80.00, summary.TopCategories[0].Amount)
}

func TestCalculateSpendingSummaryTieBreakFirstEncountered(t *testing.T) {
	transactions := []models.Transaction{
		txn("2024-05-01", 50, "Shopping"),
		txn("2024-05-02", 50, "Utilities"),
	}

	summary := CalculateSpendingSummary(transactions)

	require.Len(t, summary.TopCategories, 2)
	assert.Equal(t, "Shopping", summary.TopCategories[0].Category)
	assert.Equal(t, "Utilities", summary.TopCategories[1].Category)
}

func TestCalculateSpendingSummaryBlankCategory(t *testing.T) {
	transactions := []models.Transaction{
		txn("2024-05-01", 10, ""),
		txn("2024-05-02", 20, "Food"),
	}

	summary := CalculateSpendingSummary(transactions)

	require.Len(t, summary.TopCategories, 2)
	assert.Equal(t, "Food", summary.TopCategories[0].Category)
	assert.Equal(t, DefaultCategory, summary.TopCategories[1].Category)
	assert.Equal(t, 10.00, summary.TopCategories[1].Amount)
}

func TestCalculateSpendingSummaryRoundsAtTheEndOnly(t *testing.T) {
	// 0.1 + 0.2 style float drift must not leak into the rounded totals.
	transactions := []models.Transaction{
		txn("2024-05-01", 0.1, "Food"),
		txn("2024-05-02", 0.2, "Food"),
	}

	summary := CalculateSpendingSummary(transactions)

	assert.Equal(t, 0.30, summary.TotalSpend)
	require.Len(t, summary.TopCategories, 1)
	assert.Equal(t, 0.30, summary.TopCategories[0].Amount)
}
