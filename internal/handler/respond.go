package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"widget-shop/internal/model"
)

// respondError maps a domain error to an HTTP response. Validation and
// stock failures are client errors; unknown failures never leak details.
func respondError(c *gin.Context, err error) {
	var validation *model.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, model.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInsufficientStock.Error()})
	case errors.Is(err, model.ErrOrderCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrOrderCompleted.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
