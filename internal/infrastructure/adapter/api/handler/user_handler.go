package handler

import (
	"net/http"
	"strconv"

	domainerr "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	userUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/user"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *userUseCase.UseCase
	logger      coreport.Logger
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(
	userService *userUseCase.UseCase,
	logger coreport.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetBalance handles the GET /user/:userId/balance endpoint
func (h *UserHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	info, err := h.userService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Error getting user balance", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:     info.UserID,
		Balance:    info.Balance,
		PlanID:     info.PlanID,
		CycleStart: info.CycleStart,
		CycleEnd:   info.CycleEnd,
	})
}

// GetLedger handles the GET /user/:userId/ledger endpoint
func (h *UserHandler) GetLedger(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidUserID),
			Message: "User ID is required",
		})
		return
	}

	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
				Message: "Invalid limit parameter",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.userService.ListLedger(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Error listing user ledger", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	response := dto.LedgerResponse{
		UserID:  userID,
		Entries: make([]dto.LedgerEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, dto.LedgerEntryResponse{
			ID:        entry.ID,
			Delta:     entry.Delta,
			Kind:      string(entry.Kind),
			Reason:    entry.Reason,
			TaskID:    entry.Ref.TaskID,
			EventID:   entry.Ref.EventID,
			CreatedAt: entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
