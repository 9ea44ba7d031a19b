package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedResponse indicates the model reply did not contain a JSON
// object at the top level. Broken individual entries inside an otherwise
// valid document are skipped, never fatal.
var ErrMalformedResponse = errors.New("malformed llm response")

const defaultResultTitle = "Restaurant Recommendations"

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Recommendation is one restaurant pick extracted from a model reply. The id
// and score stay nil when the model omits them.
type Recommendation struct {
	RestaurantID   *string  `json:"restaurant_id"`
	RestaurantName string   `json:"restaurant_name"`
	MatchScore     *float64 `json:"match_score"`
	Reason         string   `json:"reason"`
}

// RecommendationsResult is the structured form of one model reply. The raw
// text is kept verbatim for diagnostics even when entries were dropped.
type RecommendationsResult struct {
	Title           string           `json:"title"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	RawResponse     string           `json:"-"`
}

// parseRecommendationsResult turns raw model output into a
// RecommendationsResult. Models wrap JSON in prose or markdown fences often
// enough that the decoder tries the text as-is, then a fenced block, then the
// outermost brace range before giving up.
func parseRecommendationsResult(text string) (*RecommendationsResult, error) {
	doc, ok := decodeObject(text)
	if !ok {
		doc, ok = decodeObject(extractFencedBlock(text))
	}
	if !ok {
		doc, ok = decodeObject(extractBraceRange(text))
	}
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model reply", ErrMalformedResponse)
	}

	result := &RecommendationsResult{
		Title:           stringField(doc, "title"),
		Summary:         stringField(doc, "summary"),
		Recommendations: make([]Recommendation, 0),
		RawResponse:     text,
	}
	if result.Title == "" {
		result.Title = defaultResultTitle
	}

	entries, _ := doc["recommendations"].([]any)
	for _, entry := range entries {
		record, isObject := entry.(map[string]any)
		if !isObject {
			continue
		}
		result.Recommendations = append(result.Recommendations, Recommendation{
			RestaurantID:   optionalString(record, "restaurant_id"),
			RestaurantName: stringField(record, "restaurant_name"),
			MatchScore:     optionalNumber(record, "match_score"),
			Reason:         stringField(record, "reason"),
		})
	}
	return result, nil
}

func decodeObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

func extractFencedBlock(text string) string {
	match := fencedBlockPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func extractBraceRange(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func stringField(doc map[string]any, key string) string {
	value, _ := doc[key].(string)
	return value
}

func optionalString(doc map[string]any, key string) *string {
	value, ok := doc[key].(string)
	if !ok {
		return nil
	}
	return &value
}

func optionalNumber(doc map[string]any, key string) *float64 {
	value, ok := doc[key].(float64)
	if !ok {
		return nil
	}
	return &value
}
