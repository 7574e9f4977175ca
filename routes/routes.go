package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/spendwise-app/spendwise-api/handlers"
	"github.com/spendwise-app/spendwise-api/services"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB) {
	authHandler := &handlers.AuthHandler{DB: db}

	rg.POST("/auth/register", authHandler.Register)
	rg.POST("/auth/verify", authHandler.VerifyOTP)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/resend-otp", authHandler.ResendOTP)
}

// SetupTransactionRoutes sets up protected transaction routes. The gemini
// service is shared so the underlying client is created once per process.
func SetupTransactionRoutes(rg *gin.RouterGroup, db *sql.DB, gemini *services.GeminiService) {
	store := services.NewPostgresTransactionStore(db)
	h := handlers.NewTransactionHandler(store, gemini)

	rg.POST("/transactions/upload", h.Upload)
	rg.GET("/transactions", h.List)
	rg.DELETE("/transactions/:id", h.Delete)
	rg.GET("/transactions/stats", h.Stats)
}

// SetupAIRoutes sets up the protected insight route.
func SetupAIRoutes(rg *gin.RouterGroup, db *sql.DB, gemini *services.GeminiService) {
	insightService := services.NewInsightService(
		services.NewPostgresTransactionStore(db),
		services.NewPostgresInsightStore(db),
		gemini,
	)
	h := handlers.NewAIHandler(insightService)

	rg.POST("/ai/insights", h.GetInsights)
}

// SetupMLRoutes sets up the protected prediction proxy route.
func SetupMLRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewMLHandler(services.NewPostgresTransactionStore(db), services.NewMLService())

	rg.GET("/ml/predict", h.GetPredictions)
}

// SetupUserRoutes sets up protected user account routes.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}
