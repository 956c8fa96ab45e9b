package handlers

import (
	"context"
	"errors"
	"net/http"

	"matchamap/internal/logger"
	"matchamap/internal/provider"
	"matchamap/internal/services"

	"github.com/gin-gonic/gin"
)

// PlaceAPI is the place service surface the handlers depend on.
type PlaceAPI interface {
	Resolve(ctx context.Context, placeID string, force bool) (*services.PlaceDetail, error)
	Details(ctx context.Context, placeID string) (*services.PlaceDetail, error)
	Recommendations(ctx context.Context, placeID string, limit int) ([]services.PlaceSummary, error)
	Autocomplete(ctx context.Context, input string) ([]provider.Prediction, error)
	CafeAutocomplete(ctx context.Context, input string) ([]provider.Prediction, error)
}

// SearchAPI is the search service surface the handlers depend on.
type SearchAPI interface {
	SearchNearby(ctx context.Context, q services.NearbyQuery) (*services.NearbyResult, error)
	SearchByText(ctx context.Context, query string) ([]services.PlaceSummary, error)
}

// handleError maps service errors onto HTTP status codes and logs server-side failures
func handleError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	case errors.Is(err, services.ErrProvider):
		status = http.StatusBadGateway
	}

	logger.GetLogger("http").Errorw(message, "path", c.FullPath(), "status", status, "error", err)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Matcha Map!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// RegisterRoutes mounts the place and search API under /api.
func RegisterRoutes(router gin.IRouter, places *PlaceHandler, search *SearchHandler) {
	api := router.Group("/api")

	placeRoutes := api.Group("/places")
	{
		placeRoutes.GET("/autocomplete", places.Autocomplete)
		placeRoutes.GET("/cafe-autocomplete", places.CafeAutocomplete)
		placeRoutes.GET("/details/:placeId", places.Details)
		placeRoutes.GET("/:placeId", places.Get)
		placeRoutes.GET("/:placeId/recommendations", places.Recommendations)
	}

	searchRoutes := api.Group("/search")
	{
		searchRoutes.GET("/nearby", search.Nearby)
		searchRoutes.GET("/cafes", search.Cafes)
	}
}
