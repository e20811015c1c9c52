package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	creditApp "evalia/internal/application/credit"
	"evalia/internal/application/credit/dto"
	"evalia/internal/shared/logger"
	"evalia/internal/shared/utils"
)

// CreditAdminHandler handles administrative reconciliation endpoints.
// These mutate or drop audit history, so they are grouped away from the
// regular credit routes.
type CreditAdminHandler struct {
	service *creditApp.Service
	logger  logger.Interface
}

// NewCreditAdminHandler creates a new credit admin handler
func NewCreditAdminHandler(service *creditApp.Service, logger logger.Interface) *CreditAdminHandler {
	return &CreditAdminHandler{
		service: service,
		logger:  logger,
	}
}

// RecomputeBalance handles POST /admin/credits/:subject_id/recompute
func (h *CreditAdminHandler) RecomputeBalance(c *gin.Context) {
	subjectID := c.Param("subject_id")

	resp, err := h.service.RecomputeBalance(c.Request.Context(), dto.RecomputeBalanceRequest{SubjectID: subjectID})
	if err != nil {
		h.logger.Errorw("failed to recompute balance", "subject_id", subjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "balance recomputed", resp)
}

// DeleteSubjectLedger handles DELETE /admin/credits/:subject_id/ledger
func (h *CreditAdminHandler) DeleteSubjectLedger(c *gin.Context) {
	subjectID := c.Param("subject_id")

	resp, err := h.service.DeleteSubjectLedger(c.Request.Context(), subjectID)
	if err != nil {
		h.logger.Errorw("failed to delete subject ledger", "subject_id", subjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subject ledger deleted", resp)
}
