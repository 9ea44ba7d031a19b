package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/entity"
)

// ErrRestaurantNotFound indicates there is no restaurant for the given id.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// RestaurantsRepository describes persistence operations for restaurants.
type RestaurantsRepository interface {
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Restaurant, error)
	ListCandidates(ctx context.Context, limit int) ([]entity.Restaurant, error)
	GetByID(ctx context.Context, id string) (*entity.Restaurant, error)
	Places(ctx context.Context) ([]dto.PlaceOption, error)
	Cuisines(ctx context.Context) ([]string, error)
	BulkUpsertRestaurants(ctx context.Context, records []BulkUpsertRestaurantInput) (BulkUpsertResult, error)
	Count(ctx context.Context) (int64, error)
}

// BulkUpsertRestaurantInput carries the fields CSV ingestion writes per row.
type BulkUpsertRestaurantInput struct {
	Name        string
	City        string
	Locality    string
	PriceBucket *string
	Rating      *float64
	Votes       *int
	Cuisines    []string
	Phone       *string
	Website     *string
	Address     *string
	Raw         json.RawMessage
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXRestaurantsRepository implements RestaurantsRepository using pgx.
type PGXRestaurantsRepository struct {
	pool pgxPool
}

// NewPGXRestaurantsRepository wires a pgx backed repository.
func NewPGXRestaurantsRepository(pool *pgxpool.Pool) *PGXRestaurantsRepository {
	return &PGXRestaurantsRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

const restaurantColumns = `
        id,
        name,
        city,
        locality,
        price_bucket,
        rating,
        votes,
        cuisines,
        phone,
        website,
        address,
        raw,
        created_at,
        updated_at`

// List retrieves restaurants matching the provided filter, sorted by rating
// then votes with the name as a stable tie-break.
func (r *PGXRestaurantsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Restaurant, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`SELECT` + restaurantColumns + `
    FROM restaurants
    `)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.Locality != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(locality) = LOWER($%d)", idx))
		args = append(args, filter.Locality)
		idx++
	}
	if filter.PriceBucket != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(price_bucket) = LOWER($%d)", idx))
		args = append(args, filter.PriceBucket)
		idx++
	}
	if filter.Cuisine != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER($%d) = ANY(cuisines)", idx))
		args = append(args, filter.Cuisine)
		idx++
	}
	if filter.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("rating >= $%d", idx))
		args = append(args, *filter.MinRating)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	baseQuery.WriteString(" ORDER BY rating DESC NULLS LAST, votes DESC NULLS LAST, name ASC")

	if filter.Limit > 0 {
		baseQuery.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	} else {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		perPage := filter.PerPage
		if perPage <= 0 {
			perPage = 20
		}
		if perPage > 100 {
			perPage = 100
		}
		offset := (page - 1) * perPage
		baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
		args = append(args, perPage, offset)
	}

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	return scanRestaurants(rows)
}

// ListCandidates returns up to limit restaurants for recommendation requests,
// best rated first.
func (r *PGXRestaurantsRepository) ListCandidates(ctx context.Context, limit int) ([]entity.Restaurant, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.List(ctx, dto.ListFilter{Limit: limit})
}

// GetByID fetches a single restaurant.
func (r *PGXRestaurantsRepository) GetByID(ctx context.Context, id string) (*entity.Restaurant, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	defer rows.Close()

	restaurants, err := scanRestaurants(rows)
	if err != nil {
		return nil, err
	}
	if len(restaurants) == 0 {
		return nil, ErrRestaurantNotFound
	}
	return &restaurants[0], nil
}

// Places returns the distinct city/locality pairs present in the catalogue.
func (r *PGXRestaurantsRepository) Places(ctx context.Context) ([]dto.PlaceOption, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT DISTINCT city, locality
        FROM restaurants
        WHERE city <> ''
        ORDER BY city ASC, locality ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var places []dto.PlaceOption
	for rows.Next() {
		var place dto.PlaceOption
		if err := rows.Scan(&place.City, &place.Locality); err != nil {
			return nil, fmt.Errorf("scan place row: %w", err)
		}
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return places, nil
}

// Cuisines returns every distinct cuisine label in the catalogue.
func (r *PGXRestaurantsRepository) Cuisines(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT DISTINCT unnest(cuisines) AS cuisine
        FROM restaurants
        ORDER BY cuisine ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list cuisines: %w", err)
	}
	defer rows.Close()

	var cuisines []string
	for rows.Next() {
		var cuisine string
		if err := rows.Scan(&cuisine); err != nil {
			return nil, fmt.Errorf("scan cuisine row: %w", err)
		}
		cuisines = append(cuisines, cuisine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cuisines: %w", err)
	}
	return cuisines, nil
}

const bulkUpsertSQL = `
        INSERT INTO restaurants (name, city, locality, price_bucket, rating, votes, cuisines, phone, website, address, raw, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,NOW())
        ON CONFLICT (name, city, locality) DO UPDATE SET
            price_bucket = EXCLUDED.price_bucket,
            rating = EXCLUDED.rating,
            votes = EXCLUDED.votes,
            cuisines = EXCLUDED.cuisines,
            phone = EXCLUDED.phone,
            website = EXCLUDED.website,
            address = EXCLUDED.address,
            raw = EXCLUDED.raw,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsertRestaurants persists a batch of restaurants with idempotent semantics.
func (r *PGXRestaurantsRepository) BulkUpsertRestaurants(ctx context.Context, records []BulkUpsertRestaurantInput) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		raw := record.Raw
		if len(raw) == 0 {
			raw = json.RawMessage("{}")
		}

		rows, err := tx.Query(ctx, bulkUpsertSQL,
			record.Name,
			record.City,
			record.Locality,
			stringOrNil(record.PriceBucket),
			floatOrNil(record.Rating),
			intOrNil(record.Votes),
			cuisinesOrEmpty(record.Cuisines),
			stringOrNil(record.Phone),
			stringOrNil(record.Website),
			stringOrNil(record.Address),
			string(raw),
		)
		if err != nil {
			return result, fmt.Errorf("bulk upsert restaurant %q: %w", record.Name, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan bulk upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("bulk upsert restaurant %q: %w", record.Name, err)
			}
			return result, fmt.Errorf("bulk upsert restaurant %q: no result returned", record.Name)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

// Count reports how many restaurants exist.
func (r *PGXRestaurantsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return count, nil
}

func scanRestaurants(rows pgx.Rows) ([]entity.Restaurant, error) {
	var restaurants []entity.Restaurant
	for rows.Next() {
		var (
			rest        entity.Restaurant
			priceBucket sql.NullString
			rating      sql.NullFloat64
			votes       sql.NullInt64
			cuisines    []string
			phone       sql.NullString
			website     sql.NullString
			address     sql.NullString
			raw         []byte
		)

		err := rows.Scan(
			&rest.ID,
			&rest.Name,
			&rest.City,
			&rest.Locality,
			&priceBucket,
			&rating,
			&votes,
			&cuisines,
			&phone,
			&website,
			&address,
			&raw,
			&rest.CreatedAt,
			&rest.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}

		if priceBucket.Valid {
			val := priceBucket.String
			rest.PriceBucket = &val
		}
		if rating.Valid {
			val := rating.Float64
			rest.Rating = &val
		}
		if votes.Valid {
			cast := int(votes.Int64)
			rest.Votes = &cast
		}
		rest.Cuisines = cuisines
		if phone.Valid {
			val := phone.String
			rest.Phone = &val
		}
		if website.Valid {
			val := website.String
			rest.Website = &val
		}
		if address.Valid {
			val := address.String
			rest.Address = &val
		}

		if len(raw) > 0 {
			rest.Raw = json.RawMessage(raw)
		} else {
			rest.Raw = json.RawMessage([]byte("{}"))
		}

		restaurants = append(restaurants, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return restaurants, nil
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	if *value == "" {
		return nil
	}
	return *value
}

func floatOrNil(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func intOrNil(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func cuisinesOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
