package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"widget-shop/internal/model"
	"widget-shop/internal/service"
)

// WidgetHandler serves the widget endpoints.
type WidgetHandler struct {
	catalog service.CatalogService
}

// NewWidgetHandler creates a new widget handler.
func NewWidgetHandler(catalog service.CatalogService) *WidgetHandler {
	return &WidgetHandler{catalog: catalog}
}

// List returns widgets ordered by category name, optionally filtered by
// ?category=<id> and repeated ?features=<label> substring filters
// (OR-combined).
func (h *WidgetHandler) List(c *gin.Context) {
	filters := service.WidgetFilters{
		Features: c.QueryArray("features"),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category must be a positive integer"})
			return
		}
		filters.CategoryID = uint(id)
	}

	widgets, err := h.catalog.ListWidgets(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]model.WidgetResponse, 0, len(widgets))
	for i := range widgets {
		responses = append(responses, widgets[i].ToWire())
	}
	c.JSON(http.StatusOK, gin.H{"widgets": responses})
}

// Get returns a single widget.
func (h *WidgetHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	widget, err := h.catalog.GetWidget(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, widget.ToWire())
}

// Create creates a widget.
func (h *WidgetHandler) Create(c *gin.Context) {
	var req model.WidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	widget, err := h.catalog.CreateWidget(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, widget.ToWire())
}

// Update applies a partial update to a widget. Served for both PUT and
// PATCH.
func (h *WidgetHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.WidgetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	widget, err := h.catalog.UpdateWidget(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, widget.ToWire())
}
