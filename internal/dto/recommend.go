package dto

// RecommendationRequest is the payload accepted by the recommendations endpoint.
// Every preference field is optional; an absent field applies no constraint.
type RecommendationRequest struct {
	Location    string   `json:"location,omitempty"`
	PriceBucket string   `json:"price_bucket,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	Cuisines    []string `json:"cuisines,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// RecommendedRestaurant is one entry of the ordered recommendation list.
type RecommendedRestaurant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Locality    string   `json:"locality"`
	PriceBucket string   `json:"price_bucket,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Cuisines    []string `json:"cuisines"`
	MatchScore  *float64 `json:"match_score,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// RecommendationsResponse carries either an AI-explained shortlist, an offline
// ranked shortlist, or an explanation_error. Explanation and ExplanationError
// are never both set.
type RecommendationsResponse struct {
	Restaurants      []RecommendedRestaurant `json:"restaurants"`
	Explanation      string                  `json:"explanation,omitempty"`
	ExplanationError string                  `json:"explanation_error,omitempty"`
	Degraded         bool                    `json:"degraded"`
}
