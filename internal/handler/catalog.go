package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"widget-shop/internal/model"
	"widget-shop/internal/service"
)

// CatalogHandler serves the category and feature administration endpoints.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories returns all categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns a category with its features.
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory creates a category.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req model.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListFeatures returns all features.
func (h *CatalogHandler) ListFeatures(c *gin.Context) {
	features, err := h.catalog.ListFeatures(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"features": features})
}

// GetFeature returns a feature.
func (h *CatalogHandler) GetFeature(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	feature, err := h.catalog.GetFeature(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

// CreateFeature creates a feature under an existing category.
func (h *CatalogHandler) CreateFeature(c *gin.Context) {
	var req model.FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	feature, err := h.catalog.CreateFeature(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, feature)
}
