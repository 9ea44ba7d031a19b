package ranking

import (
	"sort"
	"strings"
)

// Preferences captures the constraints a diner has expressed. Every field is
// optional; an unset field imposes no constraint.
type Preferences struct {
	PriceBucket string
	Location    string
	MinRating   *float64
	Cuisines    []string
}

// Candidate is one restaurant eligible for recommendation.
type Candidate struct {
	ID          string
	Name        string
	City        string
	Locality    string
	PriceBucket string
	Rating      *float64
	Cuisines    []string
	Extra       map[string]any
}

// Select keeps the candidates that satisfy every configured preference,
// orders them by rating (highest first, name ascending on ties) and returns
// at most limit entries. The input slice is never reordered or mutated.
func Select(prefs Preferences, candidates []Candidate, limit int) []Candidate {
	fragments := locationFragments(prefs.Location)
	cuisines := normalizeList(prefs.Cuisines)

	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !matchesLocation(candidate, fragments) {
			continue
		}
		if !matchesPrice(candidate, prefs.PriceBucket) {
			continue
		}
		if prefs.MinRating != nil && ratingOrZero(candidate.Rating) < *prefs.MinRating {
			continue
		}
		if !matchesCuisine(candidate, cuisines) {
			continue
		}
		kept = append(kept, candidate)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		left, right := ratingOrZero(kept[i].Rating), ratingOrZero(kept[j].Rating)
		if left != right {
			return left > right
		}
		return kept[i].Name < kept[j].Name
	})

	if limit < 0 {
		limit = 0
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// locationFragments splits a free-text location like "Bangalore, Indiranagar"
// into trimmed lowercase fragments, dropping empties.
func locationFragments(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		fragment := strings.ToLower(strings.TrimSpace(part))
		if fragment == "" {
			continue
		}
		fragments = append(fragments, fragment)
	}
	return fragments
}

// matchesLocation requires every fragment to appear in the candidate's city
// or locality.
func matchesLocation(candidate Candidate, fragments []string) bool {
	if len(fragments) == 0 {
		return true
	}
	city := strings.ToLower(candidate.City)
	locality := strings.ToLower(candidate.Locality)
	for _, fragment := range fragments {
		if !strings.Contains(city, fragment) && !strings.Contains(locality, fragment) {
			return false
		}
	}
	return true
}

func matchesPrice(candidate Candidate, bucket string) bool {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(candidate.PriceBucket), bucket)
}

// matchesCuisine checks for a non-empty intersection; wanted must already be
// normalized via normalizeList.
func matchesCuisine(candidate Candidate, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, have := range candidate.Cuisines {
		have = strings.ToLower(strings.TrimSpace(have))
		for _, want := range wanted {
			if have == want {
				return true
			}
		}
	}
	return false
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		normalized = append(normalized, value)
	}
	return normalized
}

// ratingOrZero treats a missing rating as 0 for both threshold checks and
// sort ordering.
func ratingOrZero(rating *float64) float64 {
	if rating == nil {
		return 0
	}
	return *rating
}
