package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spendwise-app/spendwise-api/models"
)

// ============================================================================
// SPENDING AGGREGATOR
// Amounts accumulate exactly; rounding to 2 decimals happens only at the
// presentation boundary so many small transactions cannot compound error.
// ============================================================================

// CalculateSpendingSummary reduces a user's transactions into a summary.
// An empty set yields a zeroed summary rather than an error.
func CalculateSpendingSummary(transactions []models.Transaction) models.SpendingSummary {
	if len(transactions) == 0 {
		return models.SpendingSummary{
			TopCategories: []models.CategoryAmount{},
		}
	}

	total := decimal.Zero
	categoryTotals := make(map[string]decimal.Decimal)
	categoryOrder := []string{}

	minDate := transactions[0].Date
	maxDate := transactions[0].Date

	for _, t := range transactions {
		amount := decimal.NewFromFloat(t.Amount)
		total = total.Add(amount)

		category := t.Category
		if category == "" {
			category = DefaultCategory
		}
		if _, seen := categoryTotals[category]; !seen {
			categoryOrder = append(categoryOrder, category)
		}
		categoryTotals[category] = categoryTotals[category].Add(amount)

		if t.Date.Before(minDate) {
			minDate = t.Date
		}
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}

	// Each category total is rounded independently, in first-encountered
	// order so equal amounts keep a stable ranking.
	topCategories := make([]models.CategoryAmount, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		topCategories = append(topCategories, models.CategoryAmount{
			Category: category,
			Amount:   categoryTotals[category].Round(2).InexactFloat64(),
		})
	}
	sort.SliceStable(topCategories, func(i, j int) bool {
		return topCategories[i].Amount > topCategories[j].Amount
	})
	if len(topCategories) > 5 {
		topCategories = topCategories[:5]
	}

	totalSpend := total.Round(2)

	// Calendar month-boundary count, not elapsed days: a range inside one
	// calendar month spans 0 months and the divisor clamps to 1, making the
	// monthly average equal the total. A known approximation, not proration.
	monthSpan := (maxDate.Year()-minDate.Year())*12 + int(maxDate.Month()) - int(minDate.Month())
	if monthSpan < 1 {
		monthSpan = 1
	}
	monthlyAverage := totalSpend.Div(decimal.NewFromInt(int64(monthSpan))).Round(2)

	return models.SpendingSummary{
		TotalSpend:       totalSpend.InexactFloat64(),
		MonthlyAverage:   monthlyAverage.InexactFloat64(),
		TransactionCount: len(transactions),
		TopCategories:    topCategories,
		DateRange: models.DateRange{
			Start: minDate,
			End:   maxDate,
		},
	}
}
