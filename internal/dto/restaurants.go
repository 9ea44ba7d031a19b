package dto

// ListFilter contains query parameters for restaurant listing endpoints.
type ListFilter struct {
	Q           string
	City        string
	Locality    string
	PriceBucket string
	Cuisine     string
	MinRating   *float64
	Page        int
	PerPage     int
	Limit       int
}

// PlaceOption is one selectable city/locality pair.
type PlaceOption struct {
	City     string `json:"city"`
	Locality string `json:"locality"`
	Label    string `json:"label"`
}

// UploadSummary reports the outcome of a CSV import.
type UploadSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}
