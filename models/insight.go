package models

import "time"

// ============================================================================
// INSIGHT MODEL
// ============================================================================

// Insight is a persisted AI-generated narrative. History is append-only; a
// refresh inserts a new record and the latest by CreatedAt wins.
type Insight struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	InsightText string          `json:"insights"`
	Summary     SpendingSummary `json:"summary"`
	GeneratedAt time.Time       `json:"generated_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

type InsightResponse struct {
	Insights    string           `json:"insights"`
	Summary     *SpendingSummary `json:"summary,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Cached      bool             `json:"cached"`
}

// ============================================================================
// ML PREDICTIONS
// ============================================================================

type Prediction struct {
	Date            string  `json:"date"`
	PredictedAmount float64 `json:"predicted_amount"`
}

type PredictionResponse struct {
	Predictions []Prediction `json:"predictions"`
	Message     string       `json:"message,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
