package handlers

import (
	"net/http"
	"strconv"

	"matchamap/internal/services"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search SearchAPI
}

func NewSearchHandler(search SearchAPI) *SearchHandler {
	return &SearchHandler{search: search}
}

// Nearby handles GET /api/search/nearby?lat=&lng=&radius=&sort=
func (h *SearchHandler) Nearby(c *gin.Context) {
	var query services.NearbyQuery

	// Absent or unparseable coordinates stay nil and are rejected by the service.
	if lat, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
		query.Lat = &lat
	}
	if lng, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
		query.Lng = &lng
	}
	if raw := c.Query("radius"); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be an integer number of meters"})
			return
		}
		query.RadiusMeters = radius
	}
	query.Sort = c.Query("sort")

	result, err := h.search.SearchNearby(c.Request.Context(), query)
	if err != nil {
		handleError(c, "Failed to search nearby places", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cafes handles GET /api/search/cafes?q=
func (h *SearchHandler) Cafes(c *gin.Context) {
	places, err := h.search.SearchByText(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleError(c, "Failed to search cafes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}
