package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/entity"
	"github.com/savorly/restaurant-recommender/internal/llm"
	"github.com/savorly/restaurant-recommender/internal/service/ranking"
)

// ErrNoCandidates indicates the caller supplied an empty candidate list.
// This is a precondition violation and never triggers the fallback path.
var ErrNoCandidates = errors.New("candidate list is empty")

// OfflineExplanation is the fixed notice used whenever results come from the
// deterministic engine instead of the model.
const OfflineExplanation = "These recommendations were selected by offline filtering and ranking; AI-generated explanations are temporarily unavailable."

// Completer is the single-call gateway the recommendation service depends
// on. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Outcome is the result shape shared by the model-backed and offline paths.
// Degraded marks that the model path failed and Reason records the cause for
// logging; neither is shown verbatim to end users.
type Outcome struct {
	Restaurants []dto.RecommendedRestaurant
	Explanation string
	Degraded    bool
	Reason      string
}

// RecommendationService composes the filter engine, prompt builder, LLM
// gateway and response parser into the recommendation entry points.
type RecommendationService struct {
	client Completer
}

// NewRecommendationService wires the gateway dependency. A nil client is
// valid and makes every model-backed call degrade to the offline path.
func NewRecommendationService(client Completer) *RecommendationService {
	return &RecommendationService{client: client}
}

// Generate runs the model-backed path once: build the prompt, perform one
// completion call, parse the reply. There is no caching and no retry; the
// caller decides what a failure means.
func (s *RecommendationService) Generate(ctx context.Context, prefs ranking.Preferences, candidates []ranking.Candidate, maxRecommendations int) (*RecommendationsResult, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: no completion client configured", llm.ErrProviderUnavailable)
	}

	system, user, err := buildRecommendationPrompt(prefs, candidates, maxRecommendations)
	if err != nil {
		return nil, err
	}

	text, err := s.client.Complete(ctx, llm.CompletionRequest{System: system, User: user})
	if err != nil {
		return nil, err
	}
	return parseRecommendationsResult(text)
}

// Fallback produces a structurally identical answer using only the
// deterministic engine, with the fixed offline notice as the explanation.
func (s *RecommendationService) Fallback(prefs ranking.Preferences, candidates []ranking.Candidate, maxRecommendations int) Outcome {
	selected := ranking.Select(prefs, candidates, maxRecommendations)
	projected := make([]dto.RecommendedRestaurant, 0, len(selected))
	for _, candidate := range selected {
		projected = append(projected, toRecommended(candidate, nil, ""))
	}
	return Outcome{
		Restaurants: projected,
		Explanation: OfflineExplanation,
		Degraded:    true,
	}
}

// Recommend is the composite entry point: filter and rank the candidates
// into a working set, try the model path over it, and degrade to the offline
// path when the provider is unavailable, the call fails or the reply cannot
// be parsed. A degraded request never retries the model within the same
// invocation.
func (s *RecommendationService) Recommend(ctx context.Context, prefs ranking.Preferences, candidates []ranking.Candidate, maxRecommendations int) (Outcome, error) {
	if len(candidates) == 0 {
		return Outcome{}, ErrNoCandidates
	}

	working := ranking.Select(prefs, candidates, promptCandidateCap)
	if len(working) == 0 {
		return Outcome{
			Restaurants: make([]dto.RecommendedRestaurant, 0),
			Explanation: OfflineExplanation,
		}, nil
	}

	result, err := s.Generate(ctx, prefs, working, maxRecommendations)
	if err != nil {
		if errors.Is(err, llm.ErrProviderUnavailable) || errors.Is(err, llm.ErrRequestFailed) || errors.Is(err, ErrMalformedResponse) {
			outcome := s.Fallback(prefs, candidates, maxRecommendations)
			outcome.Reason = err.Error()
			return outcome, nil
		}
		return Outcome{}, err
	}

	return Outcome{
		Restaurants: projectRecommendations(result, working),
		Explanation: renderExplanation(result),
	}, nil
}

// projectRecommendations maps model picks back onto the working-set
// candidates, matching by id first and case-insensitive name second. Picks
// that match no candidate are dropped.
func projectRecommendations(result *RecommendationsResult, candidates []ranking.Candidate) []dto.RecommendedRestaurant {
	byID := make(map[string]ranking.Candidate, len(candidates))
	byName := make(map[string]ranking.Candidate, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID != "" {
			byID[candidate.ID] = candidate
		}
		name := strings.ToLower(strings.TrimSpace(candidate.Name))
		if name != "" {
			if _, exists := byName[name]; !exists {
				byName[name] = candidate
			}
		}
	}

	projected := make([]dto.RecommendedRestaurant, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		candidate, found := matchCandidate(rec, byID, byName)
		if !found {
			continue
		}
		projected = append(projected, toRecommended(candidate, rec.MatchScore, rec.Reason))
	}
	return projected
}

func matchCandidate(rec Recommendation, byID, byName map[string]ranking.Candidate) (ranking.Candidate, bool) {
	if rec.RestaurantID != nil {
		if candidate, ok := byID[*rec.RestaurantID]; ok {
			return candidate, true
		}
	}
	name := strings.ToLower(strings.TrimSpace(rec.RestaurantName))
	if name != "" {
		if candidate, ok := byName[name]; ok {
			return candidate, true
		}
	}
	return ranking.Candidate{}, false
}

func toRecommended(candidate ranking.Candidate, matchScore *float64, reason string) dto.RecommendedRestaurant {
	return dto.RecommendedRestaurant{
		ID:          candidate.ID,
		Name:        candidate.Name,
		City:        candidate.City,
		Locality:    candidate.Locality,
		PriceBucket: candidate.PriceBucket,
		Rating:      candidate.Rating,
		Cuisines:    candidate.Cuisines,
		MatchScore:  matchScore,
		Reason:      reason,
	}
}

// renderExplanation flattens the parsed result into the single explanation
// string the API returns; per-restaurant reasons travel on the restaurant
// entries themselves.
func renderExplanation(result *RecommendationsResult) string {
	if result.Summary == "" {
		return result.Title
	}
	return result.Title + "\n\n" + result.Summary
}

// CandidatesFromRestaurants projects stored restaurants into the shape the
// ranking engine and prompt builder consume.
func CandidatesFromRestaurants(restaurants []entity.Restaurant) []ranking.Candidate {
	candidates := make([]ranking.Candidate, 0, len(restaurants))
	for _, r := range restaurants {
		candidate := ranking.Candidate{
			ID:       r.ID.String(),
			Name:     r.Name,
			City:     r.City,
			Locality: r.Locality,
			Rating:   r.Rating,
			Cuisines: r.Cuisines,
		}
		if r.PriceBucket != nil {
			candidate.PriceBucket = *r.PriceBucket
		}
		if len(r.Raw) > 0 {
			var extra map[string]any
			if err := json.Unmarshal(r.Raw, &extra); err == nil {
				candidate.Extra = extra
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}
