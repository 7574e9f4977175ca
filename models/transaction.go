package models

import "time"

// ============================================================================
// TRANSACTION MODEL
// ============================================================================

// Transaction is a persisted spending record owned by exactly one user.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionCandidate is a parsed-but-not-yet-persisted row. It carries no
// owner or category; those are attached at upload time.
type TransactionCandidate struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

// ParseError reports a single rejected row. Row numbers are 1-based and
// include the header row, so the first data row is row 2.
type ParseError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ParseResult is what the row parser hands back: every valid candidate plus
// every rejected row, in file order.
type ParseResult struct {
	Transactions []TransactionCandidate `json:"transactions"`
	Errors       []ParseError           `json:"errors"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Skip      int
}

type UploadResponse struct {
	Message       string       `json:"message"`
	UploadedCount int          `json:"uploadedCount"`
	Categorized   int          `json:"categorized"`
	Errors        []ParseError `json:"errors"`
}

// ============================================================================
// SPENDING SUMMARY
// ============================================================================

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SpendingSummary is derived from a user's transaction set. Amounts are
// rounded to 2 decimals at this boundary only.
type SpendingSummary struct {
	TotalSpend       float64          `json:"totalSpend"`
	MonthlyAverage   float64          `json:"monthlyAverage"`
	TransactionCount int              `json:"transactionCount"`
	TopCategories    []CategoryAmount `json:"topCategories"`
	DateRange        DateRange        `json:"dateRange"`
}
