package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rollup-backend/internal/http/response"
	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/services"
)

type RollupHandler struct {
	rollups services.RollupService
}

func NewRollupHandler(rollups services.RollupService) *RollupHandler {
	return &RollupHandler{rollups: rollups}
}

type runRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

// GET /api/rollups/:category?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *RollupHandler) ListRollups(c *gin.Context) {
	start, end := strings.TrimSpace(c.Query("start")), strings.TrimSpace(c.Query("end"))
	if start == "" || end == "" {
		response.RespondAPIError(c, fmt.Errorf("start and end are required: %w", errs.ErrInvalidArgument))
		return
	}
	rows, err := h.rollups.ListRollups(c.Request.Context(), c.Param("category"), start, end)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rollups": rows})
}

// GET /api/rollups/:category/monthly?month=YYYY-MM&mode=strict|inclusive
func (h *RollupHandler) Monthly(c *gin.Context) {
	month := strings.TrimSpace(c.Query("month"))
	if month == "" {
		response.RespondAPIError(c, fmt.Errorf("month is required: %w", errs.ErrInvalidArgument))
		return
	}
	summary, err := h.rollups.Monthly(c.Request.Context(), c.Param("category"), month, c.Query("mode"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

// POST /api/rollups/:category/runs
func (h *RollupHandler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, fmt.Errorf("invalid body: %v: %w", err, errs.ErrInvalidArgument))
		return
	}
	res, err := h.rollups.Run(c.Request.Context(), c.Param("category"), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
