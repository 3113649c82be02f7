package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/product"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/search", h.SearchProducts)
		products.GET("/:id", h.GetProduct)
		products.PATCH("/:id", h.UpdateProduct)
		products.GET("/:id/stock", h.GetStock)
		products.GET("/:id/stock-history", h.GetStockHistory)
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := &dto.ProductFilters{
		Collection:  c.Query("collection"),
		SearchQuery: c.Query("q"),
		Page:        intQuery(c, "page", 1),
		PageSize:    intQuery(c, "page_size", 20),
	}
	if v, ok := boolQuery(c, "featured"); ok {
		filters.IsFeatured = &v
	}
	if v, ok := boolQuery(c, "new_arrival"); ok {
		filters.IsNewArrival = &v
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": products, "total": total})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		h.logger.Error("failed to update product", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	docs, err := h.uc.SearchProducts(c.Request.Context(), query, intQuery(c, "limit", 20))
	if err != nil {
		h.logger.Error("product search failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs})
}

func (h *ProductHandler) GetStock(c *gin.Context) {
	sizes, err := h.uc.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get stock", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stock"})
		return
	}
	if sizes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sizes": sizes})
}

func (h *ProductHandler) GetStockHistory(c *gin.Context) {
	entries, err := h.uc.GetStockHistory(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 100))
	if err != nil {
		h.logger.Error("failed to get stock history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stock history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func boolQuery(c *gin.Context, key string) (bool, bool) {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v, true
		}
	}
	return false, false
}
