package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all handlers onto the router. Unsupported methods
// on known paths answer 405.
func RegisterRoutes(r *gin.Engine, widgets *WidgetHandler, orders *OrderHandler, catalog *CatalogHandler) {
	r.HandleMethodNotAllowed = true

	r.GET("/widget/", widgets.List)
	r.POST("/widget/", widgets.Create)
	r.GET("/widget/:id", widgets.Get)
	r.PUT("/widget/:id", widgets.Update)
	r.PATCH("/widget/:id", widgets.Update)

	r.GET("/order/", orders.MissingNumber)
	r.POST("/order/", orders.Create)
	r.GET("/order/:number", orders.Get)
	r.DELETE("/order/:number", orders.Delete)
	r.POST("/order/:number/complete/", orders.Complete)
	r.GET("/order/:number/item/", orders.ListItems)
	r.POST("/order/:number/item/", orders.AddItem)
	r.PUT("/order/:number/item/:id", orders.UpdateItem)
	r.DELETE("/order/:number/item/:id", orders.RemoveItem)

	r.GET("/category/", catalog.ListCategories)
	r.POST("/category/", catalog.CreateCategory)
	r.GET("/category/:id", catalog.GetCategory)
	r.GET("/feature/", catalog.ListFeatures)
	r.POST("/feature/", catalog.CreateFeature)
	r.GET("/feature/:id", catalog.GetFeature)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}
