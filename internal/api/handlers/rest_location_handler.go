package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FabricioLanche/campus-room/internal/geo"
)

// RestLocationHandler serves the fixed gazetteer of known places.
type RestLocationHandler struct{}

// NewRestLocationHandler creates a new RestLocationHandler.
func NewRestLocationHandler() *RestLocationHandler {
	return &RestLocationHandler{}
}

// SearchLocations handles GET /v1/location/search?q=<term>
func (h *RestLocationHandler) SearchLocations(c *gin.Context) {
	c.JSON(http.StatusOK, geo.Places(c.Query("q")))
}

// LookupLocation handles GET /v1/location/lookup?q=<term>. It resolves
// a term to a single gazetteer entry, or 404.
func (h *RestLocationHandler) LookupLocation(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query parameter 'q'"})
		return
	}

	place, ok := geo.Lookup(query)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown place"})
		return
	}
	c.JSON(http.StatusOK, place)
}

// RegisterRestLocationRoutes registers the location routes.
func RegisterRestLocationRoutes(rg *gin.RouterGroup, handler *RestLocationHandler) {
	rg.GET("/location/search", handler.SearchLocations)
	rg.GET("/location/lookup", handler.LookupLocation)
}
