package routes

import (
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	reservationHandler *handler.ReservationHandler,
	userHandler *handler.UserHandler,
	billingHandler *handler.BillingHandler,
	healthHandler *handler.HealthHandler,
) {
	router.GET("/health", healthHandler.Health)

	userRoutes := router.Group("/user")
	{
		userRoutes.GET("/:userId/balance", userHandler.GetBalance)
		userRoutes.GET("/:userId/ledger", userHandler.GetLedger)
		userRoutes.POST("/:userId/reservation", reservationHandler.Reserve)
	}

	reservationRoutes := router.Group("/reservation")
	{
		reservationRoutes.POST("/:taskId/settle", reservationHandler.Settle)
		reservationRoutes.POST("/:taskId/refund", reservationHandler.Refund)
	}

	billingRoutes := router.Group("/billing")
	{
		billingRoutes.POST("/renewal", billingHandler.ProcessRenewal)
		billingRoutes.POST("/topup", billingHandler.ProcessTopup)
		billingRoutes.POST("/upgrade", billingHandler.ProcessUpgrade)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
