package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/repository"
	"github.com/savorly/restaurant-recommender/internal/service"
)

// RestaurantsHandler exposes the restaurant catalogue endpoints.
type RestaurantsHandler struct {
	service *service.CatalogService
}

// NewRestaurantsHandler creates a new handler instance.
func NewRestaurantsHandler(service *service.CatalogService) *RestaurantsHandler {
	return &RestaurantsHandler{service: service}
}

// List handles GET /restaurants requests.
func (h *RestaurantsHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:           strings.TrimSpace(c.QueryParam("q")),
		City:        strings.TrimSpace(c.QueryParam("city")),
		Locality:    strings.TrimSpace(c.QueryParam("locality")),
		PriceBucket: strings.TrimSpace(c.QueryParam("price_bucket")),
		Cuisine:     strings.TrimSpace(c.QueryParam("cuisine")),
		Page:        parseIntDefault(c.QueryParam("page"), 1),
		PerPage:     parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if minRatingStr := strings.TrimSpace(c.QueryParam("min_rating")); minRatingStr != "" {
		if minRating, err := strconv.ParseFloat(minRatingStr, 64); err == nil {
			filter.MinRating = &minRating
		}
	}

	restaurants, err := h.service.ListRestaurants(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list restaurants")
	}

	return Success(c, http.StatusOK, "restaurants retrieved", restaurants)
}

// GetByID handles GET /restaurants/:id requests.
func (h *RestaurantsHandler) GetByID(c echo.Context) error {
	restaurant, err := h.service.GetRestaurant(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRestaurantID):
			return Error(c, http.StatusBadRequest, "invalid restaurant id")
		case errors.Is(err, repository.ErrRestaurantNotFound):
			return Error(c, http.StatusNotFound, "restaurant not found")
		default:
			return Error(c, http.StatusInternalServerError, "failed to fetch restaurant")
		}
	}

	return Success(c, http.StatusOK, "restaurant retrieved", restaurant)
}

// Places handles GET /places requests.
func (h *RestaurantsHandler) Places(c echo.Context) error {
	places, err := h.service.Places(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list places")
	}
	return Success(c, http.StatusOK, "places retrieved", places)
}

// Cuisines handles GET /cuisines requests.
func (h *RestaurantsHandler) Cuisines(c echo.Context) error {
	cuisines, err := h.service.Cuisines(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list cuisines")
	}
	return Success(c, http.StatusOK, "cuisines retrieved", cuisines)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
