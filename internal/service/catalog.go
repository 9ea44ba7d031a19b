package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/entity"
	"github.com/savorly/restaurant-recommender/internal/repository"
)

const defaultCatalogPhoneRegion = "IN"

// ErrInvalidRestaurantID indicates a lookup with a malformed identifier.
var ErrInvalidRestaurantID = errors.New("invalid restaurant id")

var priceBuckets = []string{"low", "medium", "high", "premium"}

// CatalogService exposes read/write operations for the restaurant catalogue.
type CatalogService struct {
	repo          repository.RestaurantsRepository
	defaultRegion string
}

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// NewCatalogService creates a new instance of CatalogService. The region is
// used when parsing phone numbers without a country prefix.
func NewCatalogService(repo repository.RestaurantsRepository, defaultPhoneRegion string) *CatalogService {
	region := strings.ToUpper(strings.TrimSpace(defaultPhoneRegion))
	if region == "" {
		region = defaultCatalogPhoneRegion
	}
	return &CatalogService{repo: repo, defaultRegion: region}
}

// ListRestaurants returns restaurants respecting pagination defaults.
func (s *CatalogService) ListRestaurants(ctx context.Context, filter dto.ListFilter) ([]entity.Restaurant, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

// GetRestaurant fetches one restaurant by id.
func (s *CatalogService) GetRestaurant(ctx context.Context, id string) (*entity.Restaurant, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidRestaurantID
	}
	return s.repo.GetByID(ctx, id)
}

// Candidates returns the pool of restaurants considered for a recommendation.
func (s *CatalogService) Candidates(ctx context.Context, limit int) ([]entity.Restaurant, error) {
	return s.repo.ListCandidates(ctx, limit)
}

// Places returns the selectable city/locality options with a display label.
func (s *CatalogService) Places(ctx context.Context) ([]dto.PlaceOption, error) {
	places, err := s.repo.Places(ctx)
	if err != nil {
		return nil, err
	}
	for i := range places {
		if places[i].Locality == "" {
			places[i].Label = places[i].City
			continue
		}
		places[i].Label = places[i].City + ", " + places[i].Locality
	}
	return places, nil
}

// Cuisines returns every distinct cuisine label in the catalogue.
func (s *CatalogService) Cuisines(ctx context.Context) ([]string, error) {
	return s.repo.Cuisines(ctx)
}

// ImportCSV ingests restaurant data from a CSV reader.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader) (dto.UploadSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dto.UploadSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return dto.UploadSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return dto.UploadSummary{}, valErr
	}

	var (
		records []repository.BulkUpsertRestaurantInput
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dto.UploadSummary{}, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++

		name := strings.TrimSpace(row[indexMap["name"]])
		city := strings.TrimSpace(row[indexMap["city"]])
		if name == "" || city == "" {
			continue
		}

		priceBucket, priceErr := normalizePriceBucket(row[indexMap["price_bucket"]])
		if priceErr != nil {
			return dto.UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid price_bucket value on row %d", rowNum)}
		}

		rating, parseErr := parseOptionalFloat(row[indexMap["rating"]])
		if parseErr != nil {
			return dto.UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid rating value on row %d", rowNum)}
		}
		if rating != nil && (*rating < 0 || *rating > 5) {
			return dto.UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("rating out of range on row %d", rowNum)}
		}

		votes, votesErr := parseOptionalInt(row[indexMap["votes"]])
		if votesErr != nil {
			return dto.UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid votes value on row %d", rowNum)}
		}

		records = append(records, repository.BulkUpsertRestaurantInput{
			Name:        name,
			City:        city,
			Locality:    strings.TrimSpace(row[indexMap["locality"]]),
			PriceBucket: priceBucket,
			Rating:      rating,
			Votes:       votes,
			Cuisines:    splitCuisines(row[indexMap["cuisines"]]),
			Phone:       normalizePhone(row[indexMap["phone"]], s.defaultRegion),
			Website:     normalizeWebsite(row[indexMap["website"]]),
			Address:     normalizeString(row[indexMap["address"]]),
			Raw:         rawBag(indexMap, row),
		})
	}

	result, err := s.repo.BulkUpsertRestaurants(ctx, records)
	if err != nil {
		return dto.UploadSummary{}, err
	}

	return dto.UploadSummary{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Total:    result.Total,
	}, nil
}

// ImportCSVFile loads the dataset from disk, used for the startup bootstrap.
func (s *CatalogService) ImportCSVFile(ctx context.Context, path string) (dto.UploadSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return dto.UploadSummary{}, fmt.Errorf("open dataset file: %w", err)
	}
	defer file.Close()

	return s.ImportCSV(ctx, file)
}

var requiredCSVHeaders = []string{"name", "city", "locality", "price_bucket", "rating", "cuisines", "votes", "phone", "website", "address"}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func normalizePriceBucket(value string) (*string, error) {
	bucket := strings.ToLower(strings.TrimSpace(value))
	if bucket == "" {
		return nil, nil
	}
	for _, allowed := range priceBuckets {
		if bucket == allowed {
			return &bucket, nil
		}
	}
	return nil, fmt.Errorf("unknown price bucket %q", bucket)
}

func splitCuisines(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ','
	})
	seen := make(map[string]struct{}, len(parts))
	cuisines := make([]string, 0, len(parts))
	for _, part := range parts {
		cuisine := strings.ToLower(strings.TrimSpace(part))
		if cuisine == "" {
			continue
		}
		if _, dup := seen[cuisine]; dup {
			continue
		}
		seen[cuisine] = struct{}{}
		cuisines = append(cuisines, cuisine)
	}
	if len(cuisines) == 0 {
		return nil
	}
	return cuisines
}

// normalizePhone formats the number as E.164 when it parses and validates;
// otherwise the verbatim value is kept so no dataset information is lost.
func normalizePhone(raw, region string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	number, err := phonenumbers.Parse(value, region)
	if err != nil {
		return &value
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return &value
	}
	formatted := phonenumbers.Format(number, phonenumbers.E164)
	return &formatted
}

// normalizeWebsite defaults a missing scheme to https and normalizes the
// host through IDNA lookup rules; values that do not parse are kept verbatim.
func normalizeWebsite(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	candidate := value
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return &value
	}
	host, err := idna.Lookup.ToASCII(strings.ToLower(u.Hostname()))
	if err != nil || host == "" {
		return &value
	}
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	normalized := u.String()
	return &normalized
}

// rawBag snapshots the row's source cells keyed by column name.
func rawBag(indexMap map[string]int, row []string) json.RawMessage {
	bag := make(map[string]string, len(indexMap))
	for col, i := range indexMap {
		bag[col] = strings.TrimSpace(row[i])
	}
	payload, err := json.Marshal(bag)
	if err != nil {
		return json.RawMessage("{}")
	}
	return payload
}

func parseOptionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseOptionalInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
