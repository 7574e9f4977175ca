package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spendwise-app/spendwise-api/models"
)

// ============================================================================
// ML SERVICE
// Proxy to the external prediction model. It consumes ordered date/amount
// pairs and is allowed to be down; callers substitute empty predictions.
// ============================================================================

type MLService struct {
	baseURL string
	client  *http.Client
}

func NewMLService() *MLService {
	baseURL := os.Getenv("ML_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &MLService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type predictRequest struct {
	Transactions []predictPoint `json:"transactions"`
}

type predictPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type predictResponse struct {
	Predictions []models.Prediction `json:"predictions"`
}

// GetPredictions posts the user's date/amount series to the model service.
func (s *MLService) GetPredictions(ctx context.Context, transactions []models.Transaction) ([]models.Prediction, error) {
	points := make([]predictPoint, 0, len(transactions))
	for _, t := range transactions {
		points = append(points, predictPoint{
			Date:   t.Date.Format("2006-01-02"),
			Amount: t.Amount,
		})
	}

	jsonData, err := json.Marshal(predictRequest{Transactions: points})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/predict", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ML service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ML service returned status %d", resp.StatusCode)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ML response: %w", err)
	}

	return result.Predictions, nil
}
