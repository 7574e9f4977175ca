package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spendwise-app/spendwise-api/middleware"
	"github.com/spendwise-app/spendwise-api/models"
	"github.com/spendwise-app/spendwise-api/services"
	"github.com/spendwise-app/spendwise-api/utils"
)

// maxUploadSize caps spreadsheet uploads at 5MB; larger files are rejected
// before parsing.
const maxUploadSize = 5 << 20

type TransactionHandler struct {
	Store       services.TransactionStore
	Categorizer services.Categorizer
}

func NewTransactionHandler(store services.TransactionStore, categorizer services.Categorizer) *TransactionHandler {
	return &TransactionHandler{Store: store, Categorizer: categorizer}
}

// Upload parses a CSV/Excel file, categorizes the rows best-effort, and
// persists the valid subset. Partial success is first-class: invalid rows are
// reported alongside the uploaded count.
func (h *TransactionHandler) Upload(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 5MB)"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	result := services.ParseFile(data, fileHeader.Filename)

	if len(result.Transactions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "No valid transactions found",
			"errors": result.Errors,
		})
		return
	}

	descriptions := make([]string, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		descriptions = append(descriptions, t.Description)
	}

	// Best-effort: a dead classifier must not block the upload.
	categoryMap, categorized := services.BuildCategoryMap(c.Request.Context(), h.Categorizer, descriptions)

	uploaded, err := h.Store.BulkInsert(c.Request.Context(), userID, result.Transactions, categoryMap)
	if err != nil {
		log.Printf("❌ Bulk insert failed for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload transactions"})
		return
	}

	log.Printf("✅ Uploaded %d transactions for user %s", uploaded, userID)
	c.JSON(http.StatusCreated, models.UploadResponse{
		Message:       "Transactions uploaded successfully",
		UploadedCount: uploaded,
		Categorized:   categorized,
		Errors:        result.Errors,
	})
}

// List returns the caller's transactions, newest first, with optional
// category and date filters.
func (h *TransactionHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	filter := models.TransactionFilter{
		Category: c.Query("category"),
		Limit:    50,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.Query("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Skip = n
		}
	}
	if v := c.Query("startDate"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate. Use YYYY-MM-DD"})
			return
		}
		filter.StartDate = &d
	}
	if v := c.Query("endDate"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate. Use YYYY-MM-DD"})
			return
		}
		filter.EndDate = &d
	}

	transactions, total, err := h.Store.List(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"limit":        filter.Limit,
		"skip":         filter.Skip,
	})
}

// Delete removes one transaction scoped to its owner. A foreign or missing
// id is a plain 404 so existence never leaks across users.
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	id := c.Param("id")

	if err := h.Store.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}

	log.Printf("✅ Deleted transaction %s", id)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// Stats computes the spending summary over all of the caller's transactions.
func (h *TransactionHandler) Stats(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	transactions, err := h.Store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch statistics"})
		return
	}

	c.JSON(http.StatusOK, services.CalculateSpendingSummary(transactions))
}
