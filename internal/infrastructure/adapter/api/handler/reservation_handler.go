package handler

import (
	"errors"
	"net/http"

	domainerr "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	reservationUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/reservation"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// ReservationHandler handles reservation-related HTTP requests
type ReservationHandler struct {
	reservationService *reservationUseCase.Service
	logger             coreport.Logger
}

// NewReservationHandler creates a new reservation handler instance
func NewReservationHandler(
	reservationService *reservationUseCase.Service,
	logger coreport.Logger,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// Reserve handles the POST /user/:userId/reservation endpoint
func (h *ReservationHandler) Reserve(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid reservation request format", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.reservationService.Reserve(c.Request.Context(), userID, req.Seconds, req.TaskID)
	if err != nil {
		status, message := mapReservationError(err)
		h.logger.Info("Reservation request failed", map[string]any{
			"user_id": userID,
			"task_id": req.TaskID,
			"status":  status,
			"error":   err.Error(),
		})
		response := dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		}
		// Surface needed/balance so the editor can prompt a top-up
		var insufficientErr *domainerr.InsufficientCreditsError
		if errors.As(err, &insufficientErr) {
			response.Needed = insufficientErr.Needed
			response.Balance = insufficientErr.Balance
		}
		c.JSON(status, response)
		return
	}

	c.JSON(http.StatusOK, dto.ReserveResponse{
		TaskID:          result.TaskID,
		UserID:          userID,
		ReservedCredits: result.ReservedCredits,
		Balance:         result.NewBalance,
	})
}

// Settle handles the POST /reservation/:taskId/settle endpoint
func (h *ReservationHandler) Settle(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidTaskID),
			Message: "Task ID is required",
		})
		return
	}

	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.reservationService.Settle(c.Request.Context(), taskID, req.UsedSeconds)
	if err != nil {
		status, message := mapReservationError(err)
		h.logger.Error("Settlement request failed", map[string]any{
			"task_id": taskID,
			"error":   err.Error(),
		})
		c.JSON(status, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, dto.SettleResponse{
		TaskID:        result.TaskID,
		UsedCredits:   result.UsedCredits,
		RefundCredits: result.RefundCredits,
	})
}

// Refund handles the POST /reservation/:taskId/refund endpoint
func (h *ReservationHandler) Refund(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidTaskID),
			Message: "Task ID is required",
		})
		return
	}

	result, err := h.reservationService.RefundAll(c.Request.Context(), taskID)
	if err != nil {
		status, message := mapReservationError(err)
		h.logger.Error("Refund request failed", map[string]any{
			"task_id": taskID,
			"error":   err.Error(),
		})
		c.JSON(status, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, dto.RefundResponse{
		TaskID:        result.TaskID,
		RefundCredits: result.RefundCredits,
	})
}

// mapReservationError translates domain errors into HTTP status codes
func mapReservationError(err error) (int, string) {
	switch {
	case domainerr.IsInsufficientCreditsError(err):
		return http.StatusPaymentRequired, err.Error()
	case domainerr.IsDuplicateTaskError(err):
		return http.StatusConflict, err.Error()
	case domainerr.IsUserLockedError(err):
		return http.StatusLocked, "User is busy with another operation, retry shortly"
	case domainerr.IsRetryable(err):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case domainerr.ErrorCode(err) >= 4000 && domainerr.ErrorCode(err) < 5000:
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
