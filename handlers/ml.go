package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendwise-app/spendwise-api/middleware"
	"github.com/spendwise-app/spendwise-api/models"
	"github.com/spendwise-app/spendwise-api/services"
)

// minPredictionTransactions is the minimum history the model needs before
// predictions make sense.
const minPredictionTransactions = 10

type MLHandler struct {
	Store services.TransactionLister
	ML    *services.MLService
}

func NewMLHandler(store services.TransactionLister, ml *services.MLService) *MLHandler {
	return &MLHandler{Store: store, ML: ml}
}

// GetPredictions proxies the caller's spending history to the prediction
// service. An unavailable model yields empty predictions, never an error.
func (h *MLHandler) GetPredictions(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	transactions, err := h.Store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	if len(transactions) < minPredictionTransactions {
		c.JSON(http.StatusOK, models.PredictionResponse{
			Predictions: []models.Prediction{},
			Message:     "Need at least 10 transactions for predictions",
			GeneratedAt: time.Now(),
		})
		return
	}

	// The model expects the series oldest first.
	ordered := make([]models.Transaction, len(transactions))
	for i, t := range transactions {
		ordered[len(transactions)-1-i] = t
	}

	predictions, err := h.ML.GetPredictions(c.Request.Context(), ordered)
	if err != nil {
		log.Printf("⚠️ ML service unavailable: %v", err)
		c.JSON(http.StatusOK, models.PredictionResponse{
			Predictions: []models.Prediction{},
			Message:     "ML service temporarily unavailable",
			GeneratedAt: time.Now(),
		})
		return
	}

	log.Printf("✅ Generated predictions for user %s", userID)
	c.JSON(http.StatusOK, models.PredictionResponse{
		Predictions: predictions,
		GeneratedAt: time.Now(),
	})
}
