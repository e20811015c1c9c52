package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	creditApp "evalia/internal/application/credit"
	"evalia/internal/application/credit/dto"
	"evalia/internal/shared/logger"
	"evalia/internal/shared/utils"
)

// CreditHandler handles HTTP requests for credit balance operations
type CreditHandler struct {
	service *creditApp.Service
	logger  logger.Interface
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(service *creditApp.Service, logger logger.Interface) *CreditHandler {
	return &CreditHandler{
		service: service,
		logger:  logger,
	}
}

// GrantCredits handles POST /credits/grants
func (h *CreditHandler) GrantCredits(c *gin.Context) {
	var req dto.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid grant credits request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.GrantCredits(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to grant credits", "subject_id", req.SubjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "credits granted", resp)
}

// ConsumeCredit handles POST /credits/consume
func (h *CreditHandler) ConsumeCredit(c *gin.Context) {
	var req dto.ConsumeCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid consume credit request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.ConsumeCredit(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// RemoveCredits handles POST /credits/removals
func (h *CreditHandler) RemoveCredits(c *gin.Context) {
	var req dto.RemoveCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid remove credits request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.RemoveCredits(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "credits removed", resp)
}

// BulkRemoveCredits handles POST /credits/removals/bulk.
// The batch succeeds when at least one subject was reset.
func (h *CreditHandler) BulkRemoveCredits(c *gin.Context) {
	var req dto.BulkRemoveCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid bulk remove request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.BulkRemoveCredits(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if resp.SuccessCount == 0 {
		h.logger.Warnw("bulk removal failed for all subjects", "subject_count", len(req.SubjectIDs))
		utils.ErrorResponse(c, http.StatusConflict, "credit removal failed for all subjects")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// GetAvailability handles GET /credits/:subject_id/availability
func (h *CreditHandler) GetAvailability(c *gin.Context) {
	subjectID := c.Param("subject_id")

	resp, err := h.service.CheckAvailability(c.Request.Context(), subjectID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// GetLedgerHistory handles GET /credits/ledger
// Query parameters:
//   - subject_id: restrict to one subject (optional)
//   - limit: maximum entries to return (optional)
func (h *CreditHandler) GetLedgerHistory(c *gin.Context) {
	subjectID := c.Query("subject_id")

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	resp, err := h.service.GetLedgerHistory(c.Request.Context(), subjectID, limit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// GetCreditStats handles GET /credits/stats
func (h *CreditHandler) GetCreditStats(c *gin.Context) {
	resp, err := h.service.GetCreditStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// HealthCheck handles GET /health
func (h *CreditHandler) HealthCheck(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": "ok"})
}
