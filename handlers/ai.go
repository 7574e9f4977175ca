package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise-app/spendwise-api/middleware"
	"github.com/spendwise-app/spendwise-api/services"
)

type AIHandler struct {
	Service *services.InsightService
}

func NewAIHandler(service *services.InsightService) *AIHandler {
	return &AIHandler{Service: service}
}

// GetInsights serves the cached insight when fresh, otherwise triggers
// regeneration. Upstream generator failures never surface as errors here.
func (h *AIHandler) GetInsights(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	response, err := h.Service.GetInsights(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate insights"})
		return
	}

	c.JSON(http.StatusOK, response)
}
