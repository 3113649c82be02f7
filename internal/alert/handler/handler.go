package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/alert"
	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type AlertHandler struct {
	uc     alert.UseCase
	logger logger.ZapLogger
}

func NewAlertHandler(uc alert.UseCase, log logger.ZapLogger) *AlertHandler {
	return &AlertHandler{uc: uc, logger: log}
}

func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	alerts := rg.Group("/stock/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("/:id/resolve", h.ResolveAlert)
	}
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	filters := &dto.AlertFilters{
		ProductID: c.Query("product_id"),
		Size:      c.Query("size"),
		AlertType: c.Query("alert_type"),
		Priority:  c.Query("priority"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
	}
	// Unresolved-only by default; ?resolved=true widens to everything.
	filters.Unresolved = c.Query("resolved") != "true"

	alerts, total, err := h.uc.ListAlerts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": alerts, "total": total})
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	var input dto.ResolveAlertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.uc.Resolve(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, alert.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		case errors.Is(err, alert.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "alert already resolved"})
		default:
			h.logger.Error("failed to resolve alert", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve alert"})
		}
		return
	}
	c.JSON(http.StatusOK, a)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
