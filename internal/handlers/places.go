package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PlaceHandler struct {
	places PlaceAPI
}

func NewPlaceHandler(places PlaceAPI) *PlaceHandler {
	return &PlaceHandler{places: places}
}

// Autocomplete returns location predictions for ?input=
func (h *PlaceHandler) Autocomplete(c *gin.Context) {
	predictions, err := h.places.Autocomplete(c.Request.Context(), c.Query("input"))
	if err != nil {
		handleError(c, "Failed to autocomplete location", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// CafeAutocomplete returns cafe name predictions for ?input=
func (h *PlaceHandler) CafeAutocomplete(c *gin.Context) {
	predictions, err := h.places.CafeAutocomplete(c.Request.Context(), c.Query("input"))
	if err != nil {
		handleError(c, "Failed to autocomplete cafe", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// Details always refreshes the place from the provider
func (h *PlaceHandler) Details(c *gin.Context) {
	place, err := h.places.Details(c.Request.Context(), c.Param("placeId"))
	if err != nil {
		handleError(c, "Failed to load place details", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": place})
}

// Get serves the cached place, refreshing it when thin or when ?refresh=true
func (h *PlaceHandler) Get(c *gin.Context) {
	force := c.Query("refresh") == "true"
	place, err := h.places.Resolve(c.Request.Context(), c.Param("placeId"), force)
	if err != nil {
		handleError(c, "Failed to load place", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": place})
}

// Recommendations lists similar places nearby
func (h *PlaceHandler) Recommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	recommendations, err := h.places.Recommendations(c.Request.Context(), c.Param("placeId"), limit)
	if err != nil {
		handleError(c, "Failed to load recommendations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}
