package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/ledger"
	"github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/stock"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{uc: uc, logger: log}
}

func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	st := rg.Group("/stock")
	{
		st.POST("/movements", h.AppendMovement)
		st.GET("/movements", h.ListMovements)
		st.POST("/restock", h.BulkRestock)
	}
	products := rg.Group("/products")
	{
		products.POST("/:id/reconcile", h.Reconcile)
		products.POST("/:id/stock-history/rebuild", h.RebuildHistory)
	}
}

func (h *LedgerHandler) AppendMovement(c *gin.Context) {
	var input dto.AppendMovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.uc.Append(c.Request.Context(), &input)
	if err != nil {
		switch {
		case stock.IsInsufficientStock(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, stock.ErrUnknownMovementType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, stock.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent stock update, try again"})
		default:
			h.logger.Error("failed to append movement", zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *LedgerHandler) ListMovements(c *gin.Context) {
	filters := &dto.MovementFilters{
		ProductID: c.Query("product_id"),
		Size:      c.Query("size"),
		Type:      c.Query("type"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 50),
	}
	if raw := c.Query("automated"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.Automated = &v
		}
	}
	if t, ok := timeQuery(c, "start_date"); ok {
		filters.StartDate = &t
	}
	if t, ok := timeQuery(c, "end_date"); ok {
		filters.EndDate = &t
	}

	movements, total, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list movements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list movements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": movements, "total": total})
}

func (h *LedgerHandler) BulkRestock(c *gin.Context) {
	var input dto.BulkRestockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.uc.BulkRestock(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("bulk restock failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk restock failed"})
		return
	}

	status := http.StatusOK
	if len(result.Failed) > 0 && len(result.Succeeded) == 0 {
		status = http.StatusUnprocessableEntity
	} else if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *LedgerHandler) Reconcile(c *gin.Context) {
	productID := c.Param("id")

	if size := c.Query("size"); size != "" {
		report, err := h.uc.Reconcile(c.Request.Context(), productID, size)
		if err != nil {
			h.logger.Error("reconcile failed", zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	reports, err := h.uc.ReconcileProduct(c.Request.Context(), productID)
	if err != nil {
		h.logger.Error("reconcile failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reports})
}

func (h *LedgerHandler) RebuildHistory(c *gin.Context) {
	count, err := h.uc.RebuildHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("history rebuild failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": count})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func timeQuery(c *gin.Context, key string) (time.Time, bool) {
	if raw := c.Query(key); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
