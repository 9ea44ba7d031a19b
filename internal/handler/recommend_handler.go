package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/service"
	"github.com/savorly/restaurant-recommender/internal/service/ranking"
)

const (
	defaultRecommendationLimit = 5
	maxRecommendationLimit     = 10
)

// RecommendHandler serves the recommendation endpoint. Provider and parsing
// failures never surface as HTTP errors; the response degrades instead.
type RecommendHandler struct {
	catalog       *service.CatalogService
	recommender   *service.RecommendationService
	maxCandidates int
}

// NewRecommendHandler wires the handler. maxCandidates bounds how many
// catalogue rows are considered per request.
func NewRecommendHandler(catalog *service.CatalogService, recommender *service.RecommendationService, maxCandidates int) *RecommendHandler {
	return &RecommendHandler{catalog: catalog, recommender: recommender, maxCandidates: maxCandidates}
}

// Recommend handles POST /recommendations requests.
func (h *RecommendHandler) Recommend(c echo.Context) error {
	var req dto.RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}

	prefs := ranking.Preferences{
		PriceBucket: strings.TrimSpace(req.PriceBucket),
		Location:    strings.TrimSpace(req.Location),
		MinRating:   req.MinRating,
		Cuisines:    req.Cuisines,
	}

	ctx := c.Request().Context()

	restaurants, err := h.catalog.Candidates(ctx, h.maxCandidates)
	if err != nil {
		log.Printf("candidate fetch failed: %v", err)
		return Success(c, http.StatusOK, "recommendations unavailable", dto.RecommendationsResponse{
			Restaurants:      make([]dto.RecommendedRestaurant, 0),
			ExplanationError: "could not load restaurant data",
			Degraded:         true,
		})
	}

	if len(restaurants) == 0 {
		return Success(c, http.StatusOK, "recommendations generated", dto.RecommendationsResponse{
			Restaurants: make([]dto.RecommendedRestaurant, 0),
			Explanation: service.OfflineExplanation,
		})
	}

	outcome, err := h.recommender.Recommend(ctx, prefs, service.CandidatesFromRestaurants(restaurants), limit)
	if err != nil {
		log.Printf("recommendation failed: %v", err)
		return Success(c, http.StatusOK, "recommendations unavailable", dto.RecommendationsResponse{
			Restaurants:      make([]dto.RecommendedRestaurant, 0),
			ExplanationError: "could not generate recommendations",
			Degraded:         true,
		})
	}

	if outcome.Degraded {
		log.Printf("recommendation degraded: %s", outcome.Reason)
	}

	return Success(c, http.StatusOK, "recommendations generated", dto.RecommendationsResponse{
		Restaurants: outcome.Restaurants,
		Explanation: outcome.Explanation,
		Degraded:    outcome.Degraded,
	})
}
