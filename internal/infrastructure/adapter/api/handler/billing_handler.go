package handler

import (
	"net/http"

	domainerr "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	billingUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/billing"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// BillingHandler handles billing event HTTP requests. The upstream webhook
// adapter has already verified provider signatures; these endpoints accept
// normalized events and rely on event-id deduplication for redeliveries.
type BillingHandler struct {
	processor *billingUseCase.Processor
	logger    coreport.Logger
}

// NewBillingHandler creates a new billing handler instance
func NewBillingHandler(
	processor *billingUseCase.Processor,
	logger coreport.Logger,
) *BillingHandler {
	return &BillingHandler{
		processor: processor,
		logger:    logger,
	}
}

// ProcessRenewal handles the POST /billing/renewal endpoint
func (h *BillingHandler) ProcessRenewal(c *gin.Context) {
	var req dto.RenewalEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	err := h.processor.ProcessRenewal(c.Request.Context(), billingUseCase.RenewalEvent{
		EventID:     req.EventID,
		UserID:      req.UserID,
		PlanID:      req.PlanID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
	})
	h.respond(c, req.EventID, "renewal", err)
}

// ProcessTopup handles the POST /billing/topup endpoint
func (h *BillingHandler) ProcessTopup(c *gin.Context) {
	var req dto.TopupEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	err := h.processor.ProcessTopup(c.Request.Context(), billingUseCase.TopupEvent{
		EventID: req.EventID,
		UserID:  req.UserID,
		PackSKU: req.PackSKU,
		OrderID: req.OrderID,
	})
	h.respond(c, req.EventID, "topup", err)
}

// ProcessUpgrade handles the POST /billing/upgrade endpoint
func (h *BillingHandler) ProcessUpgrade(c *gin.Context) {
	var req dto.UpgradeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	err := h.processor.ProcessUpgrade(c.Request.Context(), billingUseCase.UpgradeEvent{
		EventID:       req.EventID,
		UserID:        req.UserID,
		OldPlanID:     req.OldPlanID,
		NewPlanID:     req.NewPlanID,
		RemainingDays: req.RemainingDays,
		CycleDays:     req.CycleDays,
	})
	h.respond(c, req.EventID, "upgrade", err)
}

// respond maps the processing outcome to an HTTP response. A concurrent
// claim or transient failure returns 503 so the billing provider redelivers.
func (h *BillingHandler) respond(c *gin.Context, eventID, kind string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, dto.BillingEventResponse{
			EventID:   eventID,
			Processed: true,
		})
		return
	}

	h.logger.Error("Billing event processing failed", map[string]any{
		"event_id": eventID,
		"kind":     kind,
		"error":    err.Error(),
	})

	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case domainerr.IsRetryable(err):
		status = http.StatusServiceUnavailable
		message = "Event processing unavailable, retry delivery"
	case domainerr.ErrorCode(err) >= 4000 && domainerr.ErrorCode(err) < 5000:
		status = http.StatusBadRequest
		message = err.Error()
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}
