package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/savorly/restaurant-recommender/internal/service/ranking"
)

const (
	// promptCandidateCap bounds how many candidates are serialized into the
	// user message.
	promptCandidateCap = 50
	// promptExtraKeyCap bounds the passthrough attribute bag per candidate.
	promptExtraKeyCap = 8
)

const recommendationSystemPrompt = `You are an AI restaurant recommendation assistant. Given a user's preferences and a list of candidate restaurants, you must select and clearly explain the best options for the user.

Requirements:
- Always base your answer ONLY on the provided candidate restaurants.
- Prefer restaurants that match the requested cuisine, location, and price level.
- Prefer higher ratings, but explain trade-offs when needed.
- Output strictly in the JSON schema described in the instructions.`

type promptPreferences struct {
	PricePreference    string   `json:"price_preference,omitempty"`
	Location           string   `json:"location,omitempty"`
	MinRating          *float64 `json:"min_rating,omitempty"`
	CuisinePreferences []string `json:"cuisine_preferences,omitempty"`
}

type promptCandidate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	City        string         `json:"city,omitempty"`
	Locality    string         `json:"locality,omitempty"`
	PriceBucket string         `json:"price_bucket,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Cuisines    []string       `json:"cuisines,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
}

type promptSchemaEntry struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	MatchScore     string `json:"match_score"`
	Reason         string `json:"reason"`
}

type promptSchema struct {
	Title           string              `json:"title"`
	Summary         string              `json:"summary"`
	Recommendations []promptSchemaEntry `json:"recommendations"`
}

type promptDocument struct {
	Instructions         string            `json:"instructions"`
	UserPreferences      promptPreferences `json:"user_preferences"`
	CandidateRestaurants []promptCandidate `json:"candidate_restaurants"`
	ResponseSchema       promptSchema      `json:"response_schema"`
}

// buildRecommendationPrompt serializes the preferences, a bounded candidate
// slice and the expected output schema into the system and user messages for
// one chat completion. It never touches the network.
func buildRecommendationPrompt(prefs ranking.Preferences, candidates []ranking.Candidate, maxRecommendations int) (string, string, error) {
	if len(candidates) > promptCandidateCap {
		candidates = candidates[:promptCandidateCap]
	}

	serialized := make([]promptCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		serialized = append(serialized, promptCandidate{
			ID:          candidate.ID,
			Name:        candidate.Name,
			City:        candidate.City,
			Locality:    candidate.Locality,
			PriceBucket: candidate.PriceBucket,
			Rating:      candidate.Rating,
			Cuisines:    candidate.Cuisines,
			Raw:         truncateExtra(candidate.Extra),
		})
	}

	doc := promptDocument{
		Instructions: fmt.Sprintf("You are given:\n"+
			"1) user_preferences: the user's stated preferences, and\n"+
			"2) candidate_restaurants: a list of possible restaurants that you MUST choose from.\n\n"+
			"Select up to %d restaurants that best match the preferences.\n"+
			"Return ONLY a single JSON object matching the 'response_schema' below. "+
			"Do not include any extra commentary or markdown.\n", maxRecommendations),
		UserPreferences: promptPreferences{
			PricePreference:    prefs.PriceBucket,
			Location:           prefs.Location,
			MinRating:          prefs.MinRating,
			CuisinePreferences: prefs.Cuisines,
		},
		CandidateRestaurants: serialized,
		ResponseSchema: promptSchema{
			Title:   "Short title summarizing the recommendation context",
			Summary: "1-2 paragraphs explaining your high-level reasoning",
			Recommendations: []promptSchemaEntry{
				{
					RestaurantID:   "id string or null",
					RestaurantName: "string",
					MatchScore:     "number between 0 and 100 reflecting how well it matches the user preferences",
					Reason:         "1-3 sentences explaining why this restaurant is a good choice",
				},
			},
		},
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal prompt document: %w", err)
	}
	return recommendationSystemPrompt, string(payload), nil
}

// truncateExtra keeps at most promptExtraKeyCap entries of the passthrough
// bag, choosing the smallest keys in byte order so the cut is stable.
func truncateExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	if len(extra) <= promptExtraKeyCap {
		return extra
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	truncated := make(map[string]any, promptExtraKeyCap)
	for _, key := range keys[:promptExtraKeyCap] {
		truncated[key] = extra[key]
	}
	return truncated
}
