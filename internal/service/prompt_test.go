package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/savorly/restaurant-recommender/internal/service/ranking"
)

type promptProbe struct {
	Instructions         string           `json:"instructions"`
	UserPreferences      map[string]any   `json:"user_preferences"`
	CandidateRestaurants []map[string]any `json:"candidate_restaurants"`
	ResponseSchema       struct {
		Title           string           `json:"title"`
		Summary         string           `json:"summary"`
		Recommendations []map[string]any `json:"recommendations"`
	} `json:"response_schema"`
}

func decodePrompt(t *testing.T, user string) promptProbe {
	t.Helper()
	var probe promptProbe
	if err := json.Unmarshal([]byte(user), &probe); err != nil {
		t.Fatalf("user message is not valid JSON: %v", err)
	}
	return probe
}

func TestBuildRecommendationPrompt_Document(t *testing.T) {
	prefs := ranking.Preferences{
		PriceBucket: "medium",
		Location:    "Bangalore, Indiranagar",
		MinRating:   floatPtr(4.0),
		Cuisines:    []string{"italian"},
	}
	candidates := []ranking.Candidate{
		{
			ID:          "r-1",
			Name:        "La Piazza",
			City:        "Bangalore",
			Locality:    "Indiranagar",
			PriceBucket: "medium",
			Rating:      floatPtr(4.4),
			Cuisines:    []string{"italian", "pizza"},
		},
	}

	system, user, err := buildRecommendationPrompt(prefs, candidates, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(system, "ONLY on the provided candidate restaurants") {
		t.Fatalf("system prompt lost its grounding instruction: %q", system)
	}

	probe := decodePrompt(t, user)
	if !strings.Contains(probe.Instructions, "Select up to 3 restaurants") {
		t.Fatalf("instructions missing the recommendation cap: %q", probe.Instructions)
	}
	if !strings.Contains(probe.Instructions, "Return ONLY a single JSON object") {
		t.Fatalf("instructions missing the strict-output clause: %q", probe.Instructions)
	}

	if probe.UserPreferences["price_preference"] != "medium" {
		t.Fatalf("expected price_preference medium, got %v", probe.UserPreferences["price_preference"])
	}
	if probe.UserPreferences["min_rating"] != 4.0 {
		t.Fatalf("expected min_rating 4.0, got %v", probe.UserPreferences["min_rating"])
	}

	if len(probe.CandidateRestaurants) != 1 {
		t.Fatalf("expected one serialized candidate, got %d", len(probe.CandidateRestaurants))
	}
	candidate := probe.CandidateRestaurants[0]
	if candidate["id"] != "r-1" || candidate["name"] != "La Piazza" {
		t.Fatalf("unexpected candidate payload: %v", candidate)
	}

	if probe.ResponseSchema.Title == "" || probe.ResponseSchema.Summary == "" {
		t.Fatalf("response schema missing field descriptions: %+v", probe.ResponseSchema)
	}
	if len(probe.ResponseSchema.Recommendations) != 1 {
		t.Fatalf("expected one schema entry, got %d", len(probe.ResponseSchema.Recommendations))
	}
	entry := probe.ResponseSchema.Recommendations[0]
	for _, key := range []string{"restaurant_id", "restaurant_name", "match_score", "reason"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("schema entry missing %q: %v", key, entry)
		}
	}
}

func TestBuildRecommendationPrompt_StripsUnsetPreferences(t *testing.T) {
	_, user, err := buildRecommendationPrompt(ranking.Preferences{}, []ranking.Candidate{{ID: "r-1", Name: "Solo"}}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probe := decodePrompt(t, user)
	if len(probe.UserPreferences) != 0 {
		t.Fatalf("expected empty user_preferences, got %v", probe.UserPreferences)
	}

	_, user, err = buildRecommendationPrompt(ranking.Preferences{MinRating: floatPtr(0)}, []ranking.Candidate{{ID: "r-1", Name: "Solo"}}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probe = decodePrompt(t, user)
	if probe.UserPreferences["min_rating"] != 0.0 {
		t.Fatalf("an explicit zero threshold must survive stripping, got %v", probe.UserPreferences)
	}
}

func TestBuildRecommendationPrompt_CapsCandidates(t *testing.T) {
	candidates := make([]ranking.Candidate, 0, 60)
	for i := 0; i < 60; i++ {
		candidates = append(candidates, ranking.Candidate{
			ID:   fmt.Sprintf("r-%02d", i),
			Name: fmt.Sprintf("Kitchen %02d", i),
		})
	}

	_, user, err := buildRecommendationPrompt(ranking.Preferences{}, candidates, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probe := decodePrompt(t, user)
	if len(probe.CandidateRestaurants) != 50 {
		t.Fatalf("expected candidate cap of 50, got %d", len(probe.CandidateRestaurants))
	}
	if probe.CandidateRestaurants[0]["id"] != "r-00" || probe.CandidateRestaurants[49]["id"] != "r-49" {
		t.Fatalf("expected the first 50 candidates in order, got %v ... %v",
			probe.CandidateRestaurants[0]["id"], probe.CandidateRestaurants[49]["id"])
	}
}

func TestBuildRecommendationPrompt_TruncatesExtraBag(t *testing.T) {
	extra := map[string]any{}
	for _, key := range []string{"j", "i", "h", "g", "f", "e", "d", "c", "b", "a"} {
		extra[key] = key + "-value"
	}

	_, user, err := buildRecommendationPrompt(ranking.Preferences{}, []ranking.Candidate{
		{ID: "r-1", Name: "Bagful", Extra: extra},
	}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probe := decodePrompt(t, user)
	raw, ok := probe.CandidateRestaurants[0]["raw"].(map[string]any)
	if !ok {
		t.Fatalf("expected raw bag on candidate, got %v", probe.CandidateRestaurants[0])
	}
	if len(raw) != 8 {
		t.Fatalf("expected raw bag capped at 8 keys, got %d", len(raw))
	}
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		if _, present := raw[key]; !present {
			t.Fatalf("expected key %q to survive truncation, got %v", key, raw)
		}
	}
	for _, key := range []string{"i", "j"} {
		if _, present := raw[key]; present {
			t.Fatalf("expected key %q to be truncated away, got %v", key, raw)
		}
	}
}

func TestTruncateExtra_SmallBagsUntouched(t *testing.T) {
	extra := map[string]any{"zomato_url": "https://example.com", "cost_for_two": 1200}

	got := truncateExtra(extra)

	if len(got) != 2 {
		t.Fatalf("expected bag to pass through, got %v", got)
	}
	if truncateExtra(nil) != nil {
		t.Fatalf("expected nil bag to stay nil")
	}
}

func floatPtr(value float64) *float64 {
	return &value
}
